package ledger

import (
	"sync"

	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gammazero/deque"
)

type Event interface {
	EventName() string
}

type Log struct {
	Index     uint64
	Height    uint64
	Timestamp uint64
	Emitter   common.Address
	Event     Event
}

// EventLog keeps committed events. Only the most recent entries up to capacity are retained
// in memory; indexes keep growing so observers can detect gaps
type EventLog struct {
	mu        sync.RWMutex
	data      *deque.Deque[Log]
	cap       int
	nextIndex uint64
}

func NewEventLog(cap int) *EventLog {
	return &EventLog{
		data: deque.New[Log](cap, cap),
		cap:  cap,
	}
}

func (e *EventLog) Append(height uint64, timestamp uint64, events []pendingEvent) []Log {
	e.mu.Lock()
	defer e.mu.Unlock()

	logs := make([]Log, 0, len(events))
	for _, ev := range events {
		lg := Log{
			Index:     e.nextIndex,
			Height:    height,
			Timestamp: timestamp,
			Emitter:   ev.Emitter,
			Event:     ev.Event,
		}
		e.nextIndex++

		if e.data.Len() >= e.cap {
			e.data.PopFront()
		}
		e.data.PushBack(lg)
		logs = append(logs, lg)
	}
	return logs
}

// Recent returns up to limit most recent logs, oldest first. When names are given
// only events with those names are returned
func (e *EventLog) Recent(limit int, names ...string) []Log {
	e.mu.RLock()
	defer e.mu.RUnlock()

	filter := lib.NewSetFromSlice(names)

	var res []Log
	for i := e.data.Len() - 1; i >= 0 && len(res) < limit; i-- {
		lg := e.data.At(i)
		if filter.Len() > 0 && !filter.Contains(lg.Event.EventName()) {
			continue
		}
		res = append(res, lg)
	}

	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res
}

func (e *EventLog) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.data.Len()
}
