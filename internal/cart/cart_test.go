package cart

import "testing"

func TestAddDedupByURL(t *testing.T) {
	c := New()
	r1 := c.Add(Item{Name: "a", URL: "u", Price: 1, Currency: "USD", Source: "s"})
	if !r1.OK {
		t.Fatalf("expected first add to succeed: %+v", r1)
	}
	r2 := c.Add(Item{Name: "a2", URL: "u", Price: 2, Currency: "USD", Source: "s"})
	if r2.OK {
		t.Fatalf("expected second add with same URL to fail: %+v", r2)
	}
	if len(r2.Cart) != 1 {
		t.Fatalf("expected cart size 1, got %d", len(r2.Cart))
	}
}

func TestRemoveUnknownID(t *testing.T) {
	c := New()
	r := c.Remove("nope")
	if r.OK {
		t.Fatal("expected remove of unknown id to fail")
	}
}

func TestClearEmpties(t *testing.T) {
	c := New()
	c.Add(Item{Name: "a", URL: "u1"})
	c.Add(Item{Name: "b", URL: "u2"})
	r := c.Clear()
	if !r.OK || len(r.Cart) != 0 {
		t.Fatalf("expected empty cart after clear, got %+v", r)
	}
}

func TestListReflectsAdds(t *testing.T) {
	c := New()
	c.Add(Item{Name: "a", URL: "u1"})
	r := c.List()
	if len(r.Cart) != 1 || r.Cart[0].URL != "u1" {
		t.Fatalf("unexpected list result: %+v", r)
	}
}
