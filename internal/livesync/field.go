package livesync

import "sync"

type FieldState string

const (
	FieldCommitted  FieldState = "committed"
	FieldPending    FieldState = "pending"
	FieldRolledBack FieldState = "rolled_back"
)

// Field iyimser değiştirilebilen değer: Set yeni değeri hemen gösterir,
// yazma dönünce Commit ya da Rollback kesinleştirir.
type Field[T any] struct {
	mu        sync.Mutex
	committed T
	pending   T
	state     FieldState
	err       error
}

func NewField[T any](v T) *Field[T] {
	return &Field[T]{committed: v, state: FieldCommitted}
}

// Set iyimser değişikliği başlatır.
func (f *Field[T]) Set(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = v
	f.state = FieldPending
	f.err = nil
}

// Commit v'yi kabul eder, genelde veritabanının döndüğü değer.
func (f *Field[T]) Commit(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = v
	f.state = FieldCommitted
	f.err = nil
}

// Rollback bekleyen değeri atar, err'i göstermek için saklar.
func (f *Field[T]) Rollback(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = FieldRolledBack
	f.err = err
}

// Observe veritabanından gelen asıl değeri kaydeder. Bekleyen değer yazma
// dönene kadar gösterilmeye devam eder.
func (f *Field[T]) Observe(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = v
}

func (f *Field[T]) Value() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FieldPending {
		return f.pending
	}
	return f.committed
}

func (f *Field[T]) State() (FieldState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.err
}
