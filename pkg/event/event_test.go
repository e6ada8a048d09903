package event

import (
	"testing"
)

func TestSignalDispatchOrder(t *testing.T) {
	sig := NewSignal[int]()

	var got []int
	sig.Connect(func(v int) { got = append(got, v*10) })
	sig.Connect(func(v int) { got = append(got, v*100) })

	sig.Fire(3)

	if len(got) != 2 || got[0] != 30 || got[1] != 300 {
		t.Errorf("expected in-order dispatch [30 300], got %v", got)
	}
}

func TestSignalDisconnect(t *testing.T) {
	sig := NewUnitSignal()

	fired := 0
	conn := sig.Connect(func(Unit) { fired++ })

	FireUnit(sig)
	conn.Disconnect()
	conn.Disconnect() // second call must be a no-op
	FireUnit(sig)

	if fired != 1 {
		t.Errorf("expected 1 delivery after disconnect, got %d", fired)
	}
}

func TestSignalDisconnectDuringDispatch(t *testing.T) {
	sig := NewUnitSignal()

	var conn Connection
	fired := 0
	conn = sig.Connect(func(Unit) {
		fired++
		conn.Disconnect()
	})

	FireUnit(sig)
	FireUnit(sig)

	if fired != 1 {
		t.Errorf("expected handler to run once, got %d", fired)
	}
}

func TestMaidReplaceCleansPrior(t *testing.T) {
	maid := NewMaid()

	cleaned := []string{}
	maid.Give(func() { cleaned = append(cleaned, "first") }, "slot")
	maid.Give(func() { cleaned = append(cleaned, "second") }, "slot")

	if len(cleaned) != 1 || cleaned[0] != "first" {
		t.Fatalf("expected replacing a key to clean the prior item, got %v", cleaned)
	}

	maid.Destroy()
	if len(cleaned) != 2 || cleaned[1] != "second" {
		t.Errorf("expected destroy to clean the current item, got %v", cleaned)
	}
}

func TestMaidDestroy(t *testing.T) {
	maid := NewMaid()

	var order []int
	maid.Give(func() { order = append(order, 1) })
	maid.Give(func() { order = append(order, 2) })
	maid.Destroy()

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Errorf("expected reverse-order teardown [2 1], got %v", order)
	}

	// A late Give runs immediately.
	ran := false
	maid.Give(func() { ran = true })
	if !ran {
		t.Error("expected cleanup given after destroy to run immediately")
	}
}

func TestMaidClean(t *testing.T) {
	maid := NewMaid()

	ran := false
	maid.Give(func() { ran = true }, "task")
	maid.Clean("task")

	if !ran {
		t.Error("expected Clean to run the cleanup")
	}

	ran = false
	maid.Destroy()
	if ran {
		t.Error("expected cleaned item not to run again on destroy")
	}
}
