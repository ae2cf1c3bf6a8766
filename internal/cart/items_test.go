package cart

import "testing"

func line(id string, price float64, qty int) LineItem {
	return LineItem{ProductID: id, Name: "item-" + id, Price: price, Quantity: qty}
}

func TestAdd_MergesByProductID(t *testing.T) {
	items := Items{}
	items = items.Add(line("A", 500, 0), 2)
	items = items.Add(line("A", 500, 0), 3)
	items = items.Add(line("B", 300, 0), 1)

	if len(items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(items))
	}
	a, ok := items.Find("A")
	if !ok || a.Quantity != 5 {
		t.Fatalf("expected quantity 5 for A, got %+v", a)
	}
}

func TestAdd_DefaultsQuantityToOne(t *testing.T) {
	items := Items{}.Add(line("A", 100, 0), 0)
	a, _ := items.Find("A")
	if a.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", a.Quantity)
	}
}

func TestUpdateQuantity_BelowOneRemoves(t *testing.T) {
	items := Items{}.Add(line("A", 100, 0), 2)
	items = items.UpdateQuantity("A", 0)
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(items))
	}
}

func TestUpdateQuantity_UnknownIDIsNoop(t *testing.T) {
	items := Items{}.Add(line("A", 100, 0), 2)
	updated := items.UpdateQuantity("missing", 7)
	if len(updated) != 1 {
		t.Fatalf("expected 1 line, got %d", len(updated))
	}
	a, _ := updated.Find("A")
	if a.Quantity != 2 {
		t.Fatalf("expected quantity unchanged, got %d", a.Quantity)
	}
}

func TestRemove_IsIdempotent(t *testing.T) {
	items := Items{}.Add(line("A", 100, 0), 1)
	items = items.Remove("A")
	items = items.Remove("A")
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(items))
	}
}

func TestNetQuantity_NeverDuplicatesRows(t *testing.T) {
	// arbitrary add/update/remove sequence: one row per product id throughout
	items := Items{}
	items = items.Add(line("A", 10, 0), 1)
	items = items.Add(line("B", 20, 0), 2)
	items = items.Add(line("A", 10, 0), 4)
	items = items.UpdateQuantity("B", 1)
	items = items.Remove("A")
	items = items.Add(line("A", 10, 0), 2)

	seen := map[string]int{}
	for _, li := range items {
		seen[li.ProductID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("product %s has %d rows", id, n)
		}
	}
	a, _ := items.Find("A")
	if a.Quantity != 2 {
		t.Fatalf("expected net quantity 2 for A, got %d", a.Quantity)
	}
}

func TestTotal_And_ItemCount(t *testing.T) {
	items := Items{}
	items = items.Add(line("A", 500, 0), 2)
	items = items.Add(line("B", 300, 0), 1)

	if got := items.Total(); got != 1300 {
		t.Fatalf("expected total 1300, got %v", got)
	}
	if got := items.ItemCount(); got != 3 {
		t.Fatalf("expected item count 3, got %d", got)
	}
}

func TestTotal_TreatsMalformedValuesAsZero(t *testing.T) {
	items := Items{
		{ProductID: "A", Price: -5, Quantity: 3},
		{ProductID: "B", Price: 100, Quantity: -2},
		{ProductID: "C", Price: 50, Quantity: 2},
	}
	if got := items.Total(); got != 100 {
		t.Fatalf("expected total 100, got %v", got)
	}
}

func TestMerge_SumsSharedLinesAndAppendsRest(t *testing.T) {
	a := Items{}.Add(line("A", 10, 0), 1).Add(line("B", 20, 0), 2)
	b := Items{}.Add(line("B", 20, 0), 3).Add(line("C", 30, 0), 1)

	merged := a.Merge(b)
	if len(merged) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(merged))
	}
	bLine, _ := merged.Find("B")
	if bLine.Quantity != 5 {
		t.Fatalf("expected merged quantity 5 for B, got %d", bLine.Quantity)
	}
	if merged.Total() != 10+100+30 {
		t.Fatalf("unexpected merged total %v", merged.Total())
	}
}

func TestMutationsDoNotAliasOriginal(t *testing.T) {
	orig := Items{}.Add(line("A", 10, 0), 1)
	_ = orig.Add(line("B", 5, 0), 1)
	_ = orig.UpdateQuantity("A", 9)
	if len(orig) != 1 {
		t.Fatalf("original mutated: %d lines", len(orig))
	}
	a, _ := orig.Find("A")
	if a.Quantity != 1 {
		t.Fatalf("original quantity mutated: %d", a.Quantity)
	}
}
