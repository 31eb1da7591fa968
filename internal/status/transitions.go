package status

import (
	"fmt"
	"io"
	"strings"

	"kafe-backend/internal/apperr"
)

// Sipariş yaşam döngüsü. Listede olmayan her geçiş reddedilir,
// aynı duruma yazmak ise etkisiz kabul edilir.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderPreparing, OrderReady, OrderDelivered, OrderCompleted, OrderCancelled},
	OrderConfirmed: {OrderPreparing, OrderReady, OrderDelivered, OrderCompleted, OrderCancelled},
	OrderPreparing: {OrderReady, OrderDelivered, OrderCompleted, OrderCancelled},
	OrderReady:     {OrderDelivered, OrderServed, OrderCompleted, OrderCancelled},
	OrderDelivered: {OrderServed, OrderCompleted},
	OrderServed:    {OrderCompleted},
	OrderCompleted: {},
	OrderCancelled: {},
}

// Masa durumları. available her durumdan erişilebilir (masa temizlendi),
// bakımdaki masaya sipariş girilemez.
var tableTransitions = map[TableStatus][]TableStatus{
	TableAvailable:   {TablePending, TableOrdered, TableOccupied, TableReserved, TableCleaning, TableMaintenance},
	TablePending:     {TableOrdered, TablePreparing, TableDelivered, TableOccupied, TableCleaning, TableAvailable},
	TableOrdered:     {TablePending, TablePreparing, TableDelivered, TableCleaning, TableAvailable},
	TablePreparing:   {TablePending, TableOrdered, TableDelivered, TableCleaning, TableAvailable},
	TableDelivered:   {TablePending, TableOrdered, TablePreparing, TableOccupied, TableCleaning, TableAvailable},
	TableOccupied:    {TablePending, TableOrdered, TablePreparing, TableDelivered, TableCleaning, TableAvailable},
	TableReserved:    {TablePending, TableOrdered, TableOccupied, TableAvailable},
	TableCleaning:    {TablePending, TableMaintenance, TableAvailable},
	TableMaintenance: {TableAvailable},
}

func CanAdvanceOrder(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func CanAdvanceTable(from, to TableStatus) bool {
	from = from.Or()
	if from == to {
		return true
	}
	for _, next := range tableTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckOrderTransition geçiş tabloda yoksa ErrIllegalTransition döner.
func CheckOrderTransition(from, to OrderStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown order status %q", apperr.ErrInvalidInput, to)
	}
	if !CanAdvanceOrder(from, to) {
		return fmt.Errorf("%w: order %s -> %s", apperr.ErrIllegalTransition, from, to)
	}
	return nil
}

func CheckTableTransition(from, to TableStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown table status %q", apperr.ErrInvalidInput, to)
	}
	if !CanAdvanceTable(from, to) {
		return fmt.Errorf("%w: table %s -> %s", apperr.ErrIllegalTransition, from.Or(), to)
	}
	return nil
}

// RenderRules iki geçiş tablosunu ve iki çapraz eşlemeyi sabit düz metin
// olarak yazar (status-rules komutu).
func RenderRules(w io.Writer) error {
	var b strings.Builder

	b.WriteString("ORDER TRANSITIONS\n")
	for _, from := range OrderStatuses {
		next := make([]string, 0, len(orderTransitions[from]))
		for _, s := range orderTransitions[from] {
			next = append(next, string(s))
		}
		writeRule(&b, string(from), next)
	}

	b.WriteString("\nTABLE TRANSITIONS\n")
	for _, from := range TableStatuses {
		next := make([]string, 0, len(tableTransitions[from]))
		for _, s := range tableTransitions[from] {
			next = append(next, string(s))
		}
		writeRule(&b, string(from), next)
	}

	b.WriteString("\nORDER -> TABLE\n")
	for _, os := range OrderStatuses {
		var next []string
		if ts, ok := TableStatusForOrder(os); ok {
			next = []string{string(ts)}
		}
		writeRule(&b, string(os), next)
	}

	b.WriteString("\nTABLE -> ORDER\n")
	for _, ts := range TableStatuses {
		var next []string
		if os, ok := OrderStatusForTable(ts); ok {
			label := string(os)
			if ts == TableAvailable {
				label += " (all active orders)"
			}
			next = []string{label}
		}
		writeRule(&b, string(ts), next)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeRule(b *strings.Builder, from string, next []string) {
	target := "-"
	if len(next) > 0 {
		target = strings.Join(next, ", ")
	}
	fmt.Fprintf(b, "%-12s -> %s\n", from, target)
}
