// Package livesync commit edilen yazmaları canlı görünümlerin yeniden
// teslimatına çevirir.
//
// Servisler her commit'ten sonra Signal yayınlar. Signal sadece bir şeyin
// değiştiğini söyler, aboneler veriyi yeniden okuyup görünümü baştan kurar.
package livesync

import (
	"sync"
	"sync/atomic"
	"time"
)

type Topic string

const (
	TopicTables   Topic = "tables"
	TopicOrders   Topic = "orders"
	TopicCatalog  Topic = "catalog"
	TopicStaff    Topic = "staff"
	TopicSettings Topic = "settings"
)

type Kind string

const (
	KindOrderCreated       Kind = "order_created"
	KindOrderStatusUpdated Kind = "order_status_updated"
	KindTableStatusChanged Kind = "table_status_changed"
	KindCollectionChanged  Kind = "collection_changed"
)

type SignalItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type Signal struct {
	Kind        Kind         `json:"kind"`
	Topic       Topic        `json:"topic"`
	TableID     uint         `json:"table_id,omitempty"`
	TableNumber int          `json:"table_number,omitempty"`
	OrderID     uint         `json:"order_id,omitempty"`
	OrderNumber string       `json:"order_number,omitempty"`
	Status      string       `json:"status,omitempty"`
	NewOrder    bool         `json:"new_order,omitempty"`
	Items       []SignalItem `json:"items,omitempty"`
	At          time.Time    `json:"at"`

	// Origin başka kopyadan gelen sinyallerde köprü tarafından doldurulur,
	// yerel sinyallerde boş.
	Origin string `json:"origin,omitempty"`
}

const subscriberBuffer = 64

type subscriber struct {
	ch     chan Signal
	topics map[Topic]bool
}

func (s *subscriber) wants(t Topic) bool {
	return len(s.topics) == 0 || s.topics[t]
}

// Bus süreç içi sinyal dağıtıcısı. Publish bloklamaz: tamponu dolu abone
// ipucunu kaçırır, okunmamış sinyalleri zaten yeniden okuma tetikler.
type Bus struct {
	mu      sync.RWMutex
	subs    map[uint64]*subscriber
	seq     uint64
	dropped atomic.Uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]*subscriber)}
}

// Subscribe verilen konuların, konu yoksa hepsinin sinyallerini alır.
// Dönen fonksiyon aboneliği bitirip kanalı kapatır.
func (b *Bus) Subscribe(topics ...Topic) (<-chan Signal, func()) {
	sub := &subscriber{ch: make(chan Signal, subscriberBuffer), topics: make(map[Topic]bool, len(topics))}
	for _, t := range topics {
		sub.topics[t] = true
	}

	b.mu.Lock()
	b.seq++
	id := b.seq
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(sub.ch)
			b.mu.Unlock()
		})
	}
}

func (b *Bus) Publish(s Signal) {
	if s.At.IsZero() {
		s.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.wants(s.Topic) {
			continue
		}
		select {
		case sub.ch <- s:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped dolu tamponlar yüzünden kaçırılan sinyal sayısı.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}
