package cache

import "sync"

// In-process fallback used when Redis is unreachable and by the test suite.
var (
	mockMode     bool
	mockMutex    sync.Mutex
	mockCounters = make(map[string]int64)
)

// MockMode reports whether the package is running against the in-process map.
func MockMode() bool {
	return mockMode
}

// ResetMock clears the in-process counter state between tests.
func ResetMock() {
	mockMutex.Lock()
	defer mockMutex.Unlock()
	mockCounters = make(map[string]int64)
}
