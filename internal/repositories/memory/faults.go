// Package memory implements the repository contracts in process memory.
// Every repository accepts injected failures per method.
package memory

import "sync"

// Faults maps method names to the error they should return.
type Faults struct {
	mu   sync.Mutex
	errs map[string]error
}

// Set makes every call to method fail with err until cleared.
func (f *Faults) Set(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = make(map[string]error)
	}
	f.errs[method] = err
}

func (f *Faults) Clear(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.errs, method)
}

func (f *Faults) check(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[method]
}
