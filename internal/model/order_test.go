package model

import "testing"

func TestCanTransitionOrder(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{OrderPending, OrderConfirmed},
		{OrderConfirmed, OrderShipped},
		{OrderShipped, OrderDelivered},
		{OrderPending, OrderCancelled},
		{OrderConfirmed, OrderCancelled},
		{OrderShipped, OrderCancelled},
	}
	for _, tc := range allowed {
		if !CanTransitionOrder(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to OrderStatus }{
		{OrderPending, OrderShipped},
		{OrderPending, OrderDelivered},
		{OrderConfirmed, OrderDelivered},
		{OrderDelivered, OrderCancelled},
		{OrderCancelled, OrderConfirmed},
		{OrderDelivered, OrderShipped},
		{OrderShipped, OrderConfirmed},
	}
	for _, tc := range denied {
		if CanTransitionOrder(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}

func TestSupplierRefValidate(t *testing.T) {
	if err := (SupplierRef{}).Validate(); err != ErrSupplierMissing {
		t.Fatalf("expected ErrSupplierMissing, got %v", err)
	}

	both := SupplierRef{ContactID: "c1", Inline: &InlineSupplier{Name: "ACME"}}
	if err := both.Validate(); err != ErrSupplierAmbiguous {
		t.Fatalf("expected ErrSupplierAmbiguous, got %v", err)
	}

	unnamed := SupplierRef{Inline: &InlineSupplier{Company: "ACME Corp"}}
	if err := unnamed.Validate(); err == nil {
		t.Fatal("expected error for inline supplier without name")
	}

	if err := (SupplierRef{ContactID: "c1"}).Validate(); err != nil {
		t.Fatalf("contact ref should validate, got %v", err)
	}
	if err := (SupplierRef{Inline: &InlineSupplier{Name: "ACME"}}).Validate(); err != nil {
		t.Fatalf("inline supplier should validate, got %v", err)
	}
}

func TestPartStockStatus(t *testing.T) {
	p := Part{QuantityInStock: 0, MinimumStockLevel: 5}
	if p.StockStatus() != StockOut {
		t.Fatalf("expected out_of_stock, got %s", p.StockStatus())
	}
	p.QuantityInStock = 5
	if p.StockStatus() != StockLow {
		t.Fatalf("expected low_stock at the minimum level, got %s", p.StockStatus())
	}
	p.QuantityInStock = 6
	if p.StockStatus() != StockIn {
		t.Fatalf("expected in_stock, got %s", p.StockStatus())
	}
}
