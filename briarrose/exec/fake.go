package exec

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Delivery is a signal recorded by Recorder.
type Delivery struct {
	PID    int
	Signal unix.Signal
}

// Recorder is a Signaler that records deliveries instead of performing them.
// It is used for testing. A zero-value instance is a valid instance.
type Recorder struct {
	mutex      sync.Mutex
	deliveries []Delivery
	failing    map[int]error
}

var _ Signaler = (*Recorder)(nil)

// NewRecorder creates a recorder that fails every delivery to the given PIDs
// with ESRCH, as if the processes were gone.
func NewRecorder(gone ...int) *Recorder {
	failing := make(map[int]error, len(gone))
	for _, pid := range gone {
		failing[pid] = unix.ESRCH
	}

	return &Recorder{failing: failing}
}

// Signal records the delivery. Deliveries to failing PIDs are recorded too.
func (r *Recorder) Signal(pid int, sig unix.Signal) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.deliveries = append(r.deliveries, Delivery{pid, sig})
	return r.failing[pid]
}

// Deliveries returns a copy of the recorded deliveries.
func (r *Recorder) Deliveries() []Delivery {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return append([]Delivery(nil), r.deliveries...)
}

// Reset drops the recorded deliveries.
func (r *Recorder) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.deliveries = nil
}

type scriptProcess struct {
	once   sync.Once
	stop   chan struct{}
	reader *io.PipeReader
	writer *io.PipeWriter

	pid  int
	exit int32
}

// NewScriptProcess creates a process that prints the given output and then
// exits with status 0. If hold is true, the process keeps its output open
// afterwards, like a watcher would, until it is signaled. It is used for
// testing.
func NewScriptProcess(pid int, output string, hold bool) Process {
	r, w := io.Pipe()

	mock := &scriptProcess{
		stop:   make(chan struct{}),
		reader: r,
		writer: w,
		pid:    pid,
		exit:   -2,
	}

	go func() {
		io.Copy(w, strings.NewReader(output))

		if hold {
			<-mock.stop
		} else {
			atomic.CompareAndSwapInt32(&mock.exit, -2, 0)
		}

		w.Close()
	}()

	return mock
}

func (mock *scriptProcess) PID() int { return mock.pid }

func (mock *scriptProcess) Stdout() io.Reader { return mock.reader }

func (mock *scriptProcess) Signal(sig os.Signal) error {
	switch sig {
	case os.Interrupt, os.Kill, unix.SIGTERM:
	default:
		return errors.New("unknown signal")
	}

	// Ensure exit is still unset (-2), otherwise bail.
	if !atomic.CompareAndSwapInt32(&mock.exit, -2, -1) {
		return nil
	}

	close(mock.stop)
	// Readers see EOF and a pending write is unblocked.
	mock.writer.Close()
	return nil
}

func (mock *scriptProcess) Kill() error {
	return mock.Signal(os.Kill)
}

func (mock *scriptProcess) Wait() ExitStatus {
	mock.once.Do(func() {
		io.Copy(io.Discard, mock.reader)
	})

	return ExitStatus{
		PID:  mock.pid,
		Code: int(atomic.LoadInt32(&mock.exit)),
	}
}
