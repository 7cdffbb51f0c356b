package usage

import (
	"context"
	"testing"

	"sunrise/internal/adapters/storage"
)

func TestSQLiteStore_Increment(t *testing.T) {
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	s := NewSQLiteStore(db)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		n, err := s.Increment(ctx, "c1", "Physics notes")
		if err != nil || n != i {
			t.Fatalf("Increment %d = %d, %v", i, n, err)
		}
	}
	s.Increment(ctx, "c1", "Algebra sheet")
	s.Increment(ctx, "c2", "Algebra sheet")

	list, err := s.List(ctx, "c1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Resource != "Physics notes" || list[0].Count != 3 || list[1].Count != 1 {
		t.Errorf("List = %+v", list)
	}
}
