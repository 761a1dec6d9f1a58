package calls

import "testing"

func TestNew_AssignsIDAndKeepsOrder(t *testing.T) {
	s := NewStore()
	a := s.New(Call{Status: StatusIncoming})
	b := s.New(Call{Status: StatusIncoming})
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids: %q %q", a.ID, b.ID)
	}

	got := s.List()
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
		t.Fatalf("order not preserved: %+v", got)
	}
}

func TestMutate_AppliesUnderLockAndReturnsCopy(t *testing.T) {
	s := NewStore()
	c := s.New(Call{Status: StatusIncoming})

	got, err := s.Mutate(c.ID, func(c *Call) { c.Status = StatusRinging })
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if got.Status != StatusRinging {
		t.Fatalf("status: %q", got.Status)
	}

	// Mutating the returned copy must not touch the store.
	got.Status = StatusEnded
	stored, _ := s.Get(c.ID)
	if stored.Status != StatusRinging {
		t.Fatalf("copy aliased the stored record")
	}

	if _, err := s.Mutate("missing", func(*Call) {}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByConnectionID(t *testing.T) {
	s := NewStore()
	c := s.New(Call{Status: StatusConnected, ExternalConnectionID: "conn-1"})

	got, ok := s.FindByConnectionID("conn-1")
	if !ok || got.ID != c.ID {
		t.Fatalf("lookup failed")
	}
	if _, ok := s.FindByConnectionID(""); ok {
		t.Fatalf("empty connection id matched")
	}
	if _, ok := s.FindByConnectionID("conn-2"); ok {
		t.Fatalf("unknown connection id matched")
	}
}

func TestListActive_ExcludesEnded(t *testing.T) {
	s := NewStore()
	live := s.New(Call{Status: StatusRinging})
	s.New(Call{Status: StatusEnded})
	transferred := s.New(Call{Status: StatusTransferred})

	got := s.ListActive()
	if len(got) != 2 || got[0].ID != live.ID || got[1].ID != transferred.ID {
		t.Fatalf("active listing: %+v", got)
	}
}

func TestStatusLive(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusIncoming:    true,
		StatusRinging:     true,
		StatusConnected:   true,
		StatusTransferred: true,
		StatusEnded:       false,
	} {
		if status.Live() != want {
			t.Fatalf("%q live = %v", status, status.Live())
		}
	}
}
