package core

import (
	"errors"
	"testing"
	"time"
)

func TestRegistryBindAndName(t *testing.T) {
	reg := NewRegistry()
	reg.Bind("a", "addr-a", time.Now(), nil)
	reg.Bind("b", "addr-b", time.Now(), nil)

	if err := reg.SetName("a", "alice"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	if err := reg.SetName("a", "alicia"); !errors.Is(err, ErrNameBound) {
		t.Fatalf("expected ErrNameBound, got %v", err)
	}
	if err := reg.SetName("b", "alice"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	if err := reg.SetName("ghost", "casper"); !errors.Is(err, ErrUnknownConn) {
		t.Fatalf("expected ErrUnknownConn, got %v", err)
	}

	if id, ok := reg.LookupByName("b", "alice"); !ok || id != "a" {
		t.Fatalf("lookup alice = %q, %v", id, ok)
	}
	if _, ok := reg.LookupByName("b", "bob"); ok {
		t.Fatalf("unbound name resolved")
	}
}

func TestRegistryLookupPrefersOtherHolderOfSenderName(t *testing.T) {
	reg := NewRegistry()
	reg.Bind("first", "", time.Now(), nil)
	reg.Bind("second", "", time.Now(), nil)
	if err := reg.SetName("first", "alice"); err != nil {
		t.Fatalf("set name: %v", err)
	}

	// Force the transient duplicate the bind-time check normally prevents.
	s, _ := reg.Get("second")
	s.User.Name = "alice"

	if id, ok := reg.LookupByName("second", "alice"); !ok || id != "first" {
		t.Fatalf("expected other holder, got %q, %v", id, ok)
	}
	if id, ok := reg.LookupByName("first", "alice"); !ok || id != "second" {
		t.Fatalf("expected other holder, got %q, %v", id, ok)
	}

	s.User.Name = ""
	if id, ok := reg.LookupByName("first", "alice"); !ok || id != "first" {
		t.Fatalf("sole holder should resolve to sender, got %q, %v", id, ok)
	}
}

func TestRegistryRemoveClosesAndForgets(t *testing.T) {
	reg := NewRegistry()
	closed := 0
	reg.Bind("a", "", time.Now(), func() { closed++ })
	reg.Bind("b", "", time.Now(), nil)
	_ = reg.SetName("a", "alice")
	_ = reg.SetName("b", "bob")
	reg.Promote("a")
	reg.Promote("b")

	if _, ok := reg.Remove("a"); !ok {
		t.Fatalf("remove failed")
	}
	if closed != 1 {
		t.Fatalf("transport closed %d times", closed)
	}
	if _, ok := reg.Remove("a"); ok {
		t.Fatalf("second remove succeeded")
	}
	if closed != 1 {
		t.Fatalf("transport closed again")
	}
	if _, ok := reg.LookupByName("b", "alice"); ok {
		t.Fatalf("removed name still resolves")
	}
	if got := reg.Managers(); len(got) != 1 || got[0] != "bob" {
		t.Fatalf("managers = %v", got)
	}
	if got := reg.Recipients(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("recipients = %v", got)
	}

	// The freed name can be claimed again.
	reg.Bind("c", "", time.Now(), nil)
	if err := reg.SetName("c", "alice"); err != nil {
		t.Fatalf("reuse freed name: %v", err)
	}
}

func TestRegistryPromoteAndSilenceAreIdempotent(t *testing.T) {
	reg := NewRegistry()
	reg.Bind("a", "", time.Now(), nil)

	if reg.Promote("a") {
		t.Fatalf("unnamed user promoted")
	}
	_ = reg.SetName("a", "alice")
	if !reg.Promote("a") || reg.Promote("a") {
		t.Fatalf("promote should succeed exactly once")
	}
	if got := reg.Managers(); len(got) != 1 {
		t.Fatalf("managers = %v", got)
	}
	if !reg.Silence("a") || reg.Silence("a") {
		t.Fatalf("silence should succeed exactly once")
	}
}

func TestRegistryFirstNamedFollowsAcceptanceOrder(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []ConnID{"a", "b", "c"} {
		reg.Bind(id, "", time.Now(), nil)
	}
	_ = reg.SetName("c", "carol")
	_ = reg.SetName("b", "bob")

	if id, ok := reg.FirstNamed(); !ok || id != "b" {
		t.Fatalf("first named = %q, %v", id, ok)
	}
	reg.MarkClosing("b")
	if id, ok := reg.FirstNamed(); !ok || id != "c" {
		t.Fatalf("first named skipping closing = %q, %v", id, ok)
	}
}
