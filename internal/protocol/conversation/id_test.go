package conversation_test

import (
	"errors"
	"testing"

	"polychat/internal/domain"
	"polychat/internal/protocol/conversation"
)

func TestIDFor_Commutative(t *testing.T) {
	pairs := [][2]domain.UserID{
		{"u1", "u2"},
		{"alice", "bob"},
		{"Zed", "amy"},
		{"x", "xx"},
		{"kF3n9aQ2", "Pq81zzT0"},
	}
	for _, p := range pairs {
		ab, err := conversation.IDFor(p[0], p[1])
		if err != nil {
			t.Fatalf("IDFor(%s, %s): %v", p[0], p[1], err)
		}
		ba, err := conversation.IDFor(p[1], p[0])
		if err != nil {
			t.Fatalf("IDFor(%s, %s): %v", p[1], p[0], err)
		}
		if ab != ba {
			t.Fatalf("IDFor not commutative: %q vs %q", ab, ba)
		}
	}

	id, _ := conversation.IDFor("u2", "u1")
	if id != "u1_u2" {
		t.Fatalf("IDFor(u2, u1) = %q, want u1_u2", id)
	}
}

func TestIDFor_Injective(t *testing.T) {
	ids := []domain.UserID{"a", "b", "ab", "ba", "a-b", "b-a", "aa", "bb", "a.b", "u1", "u12", "u2"}
	seen := make(map[domain.ConversationID][2]domain.UserID)
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			id, err := conversation.IDFor(ids[i], ids[j])
			if err != nil {
				t.Fatal(err)
			}
			if prev, ok := seen[id]; ok {
				t.Fatalf("%v and %v both map to %q", prev, [2]domain.UserID{ids[i], ids[j]}, id)
			}
			seen[id] = [2]domain.UserID{ids[i], ids[j]}
		}
	}
}

func TestIDFor_Rejects(t *testing.T) {
	tests := []struct {
		name string
		a, b domain.UserID
	}{
		{"empty first", "", "u2"},
		{"empty second", "u1", ""},
		{"separator in first", "u_1", "u2"},
		{"separator in second", "u1", "u_2"},
		{"same user", "u1", "u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := conversation.IDFor(tt.a, tt.b)
			if !errors.Is(err, domain.ErrInvalidIdentifier) {
				t.Errorf("got %v, want ErrInvalidIdentifier", err)
			}
		})
	}
}

func TestParticipants(t *testing.T) {
	a, b, err := conversation.Participants("u1_u2")
	if err != nil {
		t.Fatalf("Participants: %v", err)
	}
	if a != "u1" || b != "u2" {
		t.Fatalf("got (%s, %s), want (u1, u2)", a, b)
	}

	for _, bad := range []domain.ConversationID{"", "u1", "u2_u1", "u1_", "_u2", "u1_u2_u3"} {
		if _, _, err := conversation.Participants(bad); !errors.Is(err, domain.ErrInvalidIdentifier) {
			t.Errorf("Participants(%q): got %v, want ErrInvalidIdentifier", bad, err)
		}
	}
}
