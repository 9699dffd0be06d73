package cache

import (
	"log"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
)

var (
	rs         *redsync.Redsync
	localLocks sync.Map // name -> *sync.Mutex, mock-mode fallback
)

// DistributedLockService serializes cross-instance critical sections, such
// as single-active poll activation.
type DistributedLockService struct {
	rs *redsync.Redsync
}

// InitDistLock wires redsync on top of the existing Redis client. In mock
// mode locks degrade to in-process mutexes, which is sufficient for a single
// instance and for tests.
func InitDistLock() {
	client, err := GetClient()
	if err != nil {
		log.Printf("distributed lock running in local mode: %v", err)
		return
	}

	pool := goredis.NewPool(client)
	rs = redsync.New(pool)
	log.Println("distributed lock initialized")
}

// GetLockService returns the lock service bound to the package state.
func GetLockService() *DistributedLockService {
	return &DistributedLockService{rs: rs}
}

// WithLock runs action while holding the named lock, releasing it on return.
func (s *DistributedLockService) WithLock(lockName string, expiry time.Duration, action func() error) error {
	if s.rs == nil {
		// Local fallback: still serializes within this process.
		muIface, _ := localLocks.LoadOrStore(lockName, &sync.Mutex{})
		mu := muIface.(*sync.Mutex)
		mu.Lock()
		defer mu.Unlock()
		return action()
	}

	mutex := s.rs.NewMutex(lockName,
		redsync.WithExpiry(expiry),
		redsync.WithTries(5),
		redsync.WithRetryDelay(50*time.Millisecond),
	)

	if err := mutex.Lock(); err != nil {
		return ErrLockNotAcquired
	}
	defer func() {
		_, _ = mutex.Unlock()
	}()

	return action()
}
