package bench

import (
	"fmt"
	"runtime"
)

// Worker performs count units of work and returns once all of them are done.
type Worker interface {
	Run(count int) error
}

// WorkerFactory builds the worker with the given index in a cohort.
type WorkerFactory func(index int) (Worker, error)

// HashWorker digests the same payload over and over, discarding every sum.
type HashWorker struct {
	digest  Digester
	payload []byte
}

func NewHashWorker(algorithm string, payload []byte) (*HashWorker, error) {
	digest, err := NewDigester(algorithm)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		payload = DefaultPayload
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return &HashWorker{
		digest:  digest,
		payload: buf,
	}, nil
}

func (w *HashWorker) Run(count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: hash count %d", ErrInvalidConfiguration, count)
	}
	var sink byte
	for i := 0; i < count; i++ {
		sum := w.digest(w.payload)
		sink ^= sum[0]
	}
	runtime.KeepAlive(sink)
	return nil
}

func HashWorkerFactory(algorithm string, payload []byte) WorkerFactory {
	return func(int) (Worker, error) {
		return NewHashWorker(algorithm, payload)
	}
}
