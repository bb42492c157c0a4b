package telemetry

import "sync"

// Recorder is an API that keeps every broken and warning id it receives, tests use
// it to assert which failures were reported.
type Recorder struct {
	mutex    sync.Mutex
	Broken   []string
	Warnings []string
	Counts   map[string]int64
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.Broken = append(r.Broken, id)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.Warnings = append(r.Warnings, id)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {}

func (r *Recorder) ReportCount(id string, count int64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.Counts == nil {
		r.Counts = map[string]int64{}
	}
	r.Counts[id] = count
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.Broken = nil
	r.Warnings = nil
	r.Counts = nil
}
