package calculator

import (
	"errors"
	"math"
	"testing"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
)

func testGroup(members ...string) *models.Group {
	return &models.Group{Name: "trip", Members: members}
}

func TestAssign(t *testing.T) {
	tests := []struct {
		name      string
		item      models.Item
		payer     string
		assignees []string
		group     *models.Group
		wantErr   bool
		wantShare float64
	}{
		{
			name:      "even two-way split",
			item:      models.Item{Name: "Pizza", Price: 20.0},
			payer:     "alice@example.com",
			assignees: []string{"alice@example.com", "bob@example.com"},
			group:     testGroup("alice@example.com", "bob@example.com"),
			wantShare: 10.0,
		},
		{
			name:      "three-way split rounds half-up to 6.67",
			item:      models.Item{Name: "Pizza", Price: 20.0},
			payer:     "alice@example.com",
			assignees: []string{"alice@example.com", "bob@example.com", "carol@example.com"},
			group:     testGroup("alice@example.com", "bob@example.com", "carol@example.com"),
			wantShare: 6.67,
		},
		{
			name:      "payer not among assignees is allowed",
			item:      models.Item{Name: "Beer", Price: 9.0},
			payer:     "alice@example.com",
			assignees: []string{"bob@example.com"},
			group:     testGroup("alice@example.com", "bob@example.com"),
			wantShare: 9.0,
		},
		{
			name:      "empty assignees rejected",
			item:      models.Item{Name: "Pizza", Price: 20.0},
			payer:     "alice@example.com",
			assignees: nil,
			group:     testGroup("alice@example.com"),
			wantErr:   true,
		},
		{
			name:      "mixed-case member emails are normalized",
			item:      models.Item{Name: "Pizza", Price: 20.0},
			payer:     "Alice@Example.com",
			assignees: []string{"BOB@example.com", "alice@example.com"},
			group:     testGroup("alice@example.com", "bob@example.com"),
			wantShare: 10.0,
		},
		{
			name:      "duplicate assignee rejected",
			item:      models.Item{Name: "Pizza", Price: 10.0},
			payer:     "alice@example.com",
			assignees: []string{"bob@example.com", "bob@example.com"},
			group:     testGroup("alice@example.com", "bob@example.com"),
			wantErr:   true,
		},
		{
			name:      "duplicate assignee in different case rejected",
			item:      models.Item{Name: "Pizza", Price: 10.0},
			payer:     "alice@example.com",
			assignees: []string{"bob@example.com", "Bob@Example.com"},
			group:     testGroup("alice@example.com", "bob@example.com"),
			wantErr:   true,
		},
		{
			name:      "non-member assignee rejected",
			item:      models.Item{Name: "Pizza", Price: 20.0},
			payer:     "alice@example.com",
			assignees: []string{"mallory@example.com"},
			group:     testGroup("alice@example.com", "bob@example.com"),
			wantErr:   true,
		},
		{
			name:      "non-member payer rejected",
			item:      models.Item{Name: "Pizza", Price: 20.0},
			payer:     "mallory@example.com",
			assignees: []string{"alice@example.com"},
			group:     testGroup("alice@example.com", "bob@example.com"),
			wantErr:   true,
		},
		{
			name:      "zero price rejected",
			item:      models.Item{Name: "Pizza", Price: 0},
			payer:     "alice@example.com",
			assignees: []string{"alice@example.com"},
			group:     testGroup("alice@example.com"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expense, err := Assign(tt.item, tt.payer, tt.assignees, tt.group)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidAssignment) {
					t.Errorf("error = %v, want ErrInvalidAssignment", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Assign failed: %v", err)
			}
			if expense.Share != tt.wantShare {
				t.Errorf("share = %v, want %v", expense.Share, tt.wantShare)
			}
			// share * count must reconstruct the amount within a cent per assignee
			diff := math.Abs(expense.Share*float64(len(tt.assignees)) - expense.Amount)
			if diff >= 0.01*float64(len(tt.assignees)) {
				t.Errorf("share*count diverges from amount by %v", diff)
			}
		})
	}
}

func TestRoundToCents(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{6.666666, 6.67},
		{6.664, 6.66},
		{6.665, 6.67}, // half rounds up
		{10.0, 10.0},
		{0.005, 0.01},
	}
	for _, tt := range tests {
		if got := RoundToCents(tt.in); got != tt.want {
			t.Errorf("RoundToCents(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
