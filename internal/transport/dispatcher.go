package transport

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"multicam/internal/protocol"
)

// Priority はコマンドの送信優先度
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityNormal:
		return "NORMAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

var (
	// ErrQueueFull はキューが上限に達している場合のエラー
	ErrQueueFull = errors.New("送信キューが満杯です")
	// ErrStopped は停止後に投入された場合のエラー
	ErrStopped = errors.New("ディスパッチャーは停止しています")
)

// Message は送信キューに積まれるコマンド1件
type Message struct {
	ID         string
	CameraID   string
	Addr       string
	Command    protocol.Command
	Priority   Priority
	Retries    int // これまでの再送回数
	MaxRetries int
	QueuedAt   time.Time

	seq uint64
}

// Result は送信結果。Err が nil なら成功
type Result struct {
	Message Message
	Bytes   int
	Elapsed time.Duration
	Err     error
}

// Stats は送信統計
type Stats struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Bytes  int `json:"bytes"`
	Queued int `json:"queued"`
}

// Options はディスパッチャーの動作設定
type Options struct {
	MaxRetries      int
	ShutdownRetries int // SHUTDOWN と REBOOT の再送回数
	RetryInterval   time.Duration
	QueueSize       int // 0 は無制限
}

// Dispatcher は優先度付きキューからコマンドを取り出して送信する
type Dispatcher struct {
	sender Sender
	opts   Options

	mu       sync.Mutex
	queue    messageQueue
	seq      uint64
	pending  int // キュー内・送信中・再送待ちの合計
	stats    Stats
	onResult func(Result)
	stopped  bool

	notify chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewDispatcher は新しいDispatcherを作成する
func NewDispatcher(sender Sender, opts Options) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		opts:   opts,
		notify: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
}

// OnResult は送信完了（成功または再送打ち切り）ごとに呼ばれる関数を登録する
func (d *Dispatcher) OnResult(fn func(Result)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onResult = fn
}

// Start はワーカーを開始する
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go d.run(ctx)
	log.Info("送信ワーカーを開始しました")
}

// Stop はワーカーを停止する。未送信のコマンドは破棄する
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	dropped := d.queue.Len()
	d.mu.Unlock()

	close(d.stopCh)
	d.wg.Wait()

	s := d.Stats()
	log.WithFields(log.Fields{
		"sent":    s.Sent,
		"failed":  s.Failed,
		"bytes":   s.Bytes,
		"dropped": dropped,
	}).Info("送信ワーカーを停止しました")
}

// Enqueue はコマンドをキューに積み、メッセージIDを返す
func (d *Dispatcher) Enqueue(cameraID, addr string, cmd protocol.Command, prio Priority) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return "", ErrStopped
	}
	if d.opts.QueueSize > 0 && d.queue.Len() >= d.opts.QueueSize {
		return "", ErrQueueFull
	}

	maxRetries := d.opts.MaxRetries
	if isPowerCommand(cmd) {
		maxRetries = d.opts.ShutdownRetries
	}

	msg := &Message{
		ID:         uuid.New().String(),
		CameraID:   cameraID,
		Addr:       addr,
		Command:    cmd,
		Priority:   prio,
		MaxRetries: maxRetries,
		QueuedAt:   time.Now(),
	}
	d.pushLocked(msg)
	d.pending++

	log.WithFields(log.Fields{
		"camera":   cameraID,
		"command":  cmd.Name(),
		"priority": prio,
		"queued":   d.queue.Len(),
	}).Debug("コマンドをキューに追加しました")

	return msg.ID, nil
}

// Flush はキューが空になり送信中のコマンドがなくなるまで待つ
func (d *Dispatcher) Flush(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		d.mu.Lock()
		pending := d.pending
		d.mu.Unlock()
		if pending == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("送信待ちがタイムアウトしました (残り %d 件): %w", pending, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Clear は未送信のコマンドを全て破棄し、破棄した件数を返す
func (d *Dispatcher) Clear() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.queue.Len()
	d.queue = nil
	d.pending -= n
	log.Infof("送信キューから %d 件を破棄しました", n)
	return n
}

// QueueLen はキューに残っている件数を返す
func (d *Dispatcher) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Len()
}

// Stats は送信統計を返す
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.Queued = d.queue.Len()
	return s
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	for {
		msg := d.pop()
		if msg == nil {
			select {
			case <-d.stopCh:
				return
			case <-ctx.Done():
				return
			case <-d.notify:
				continue
			}
		}

		select {
		case <-d.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}
		d.send(ctx, msg)
	}
}

func (d *Dispatcher) send(ctx context.Context, msg *Message) {
	payload := []byte(protocol.Encode(msg.Command))
	start := time.Now()
	err := d.sender.Send(ctx, msg.Addr, payload)
	elapsed := time.Since(start)

	logger := log.WithFields(log.Fields{
		"camera":  msg.CameraID,
		"addr":    msg.Addr,
		"command": msg.Command.Name(),
	})

	if err != nil && msg.Retries < msg.MaxRetries {
		msg.Retries++
		logger.Warnf("送信に失敗しました。再送します (%d/%d): %v", msg.Retries, msg.MaxRetries, err)
		d.requeue(msg)
		return
	}

	d.mu.Lock()
	if err != nil {
		d.stats.Failed++
	} else {
		d.stats.Sent++
		d.stats.Bytes += len(payload)
	}
	d.pending--
	onResult := d.onResult
	d.mu.Unlock()

	if err != nil {
		logger.Errorf("送信に失敗しました: %v", err)
	} else {
		logger.Debugf("送信しました (%d bytes, %v)", len(payload), elapsed)
	}

	if onResult != nil {
		onResult(Result{Message: *msg, Bytes: len(payload), Elapsed: elapsed, Err: err})
	}
}

// requeue は同じ優先度でキューに戻す
func (d *Dispatcher) requeue(msg *Message) {
	push := func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.stopped {
			d.pending--
			return
		}
		d.pushLocked(msg)
	}

	if d.opts.RetryInterval <= 0 {
		push()
		return
	}
	time.AfterFunc(d.opts.RetryInterval, push)
}

func (d *Dispatcher) pushLocked(msg *Message) {
	d.seq++
	msg.seq = d.seq
	heap.Push(&d.queue, msg)

	select {
	case d.notify <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) pop() *Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.queue.Len() == 0 {
		return nil
	}
	return heap.Pop(&d.queue).(*Message)
}

// messageQueue は優先度の高い順、同じ優先度では投入順に並ぶヒープ
type messageQueue []*Message

func (q messageQueue) Len() int { return len(q) }

func (q messageQueue) Less(i, j int) bool {
	if q[i].Priority != q[j].Priority {
		return q[i].Priority > q[j].Priority
	}
	return q[i].seq < q[j].seq
}

func (q messageQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *messageQueue) Push(x any) { *q = append(*q, x.(*Message)) }

func (q *messageQueue) Pop() any {
	old := *q
	n := len(old)
	msg := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return msg
}

// isPowerCommand は電源を落とすコマンドかを返す
// 受信側はすぐ応答しなくなるため再送回数を抑える
func isPowerCommand(cmd protocol.Command) bool {
	switch cmd.(type) {
	case protocol.Shutdown, protocol.Reboot:
		return true
	}
	return false
}
