package memory

import (
	"context"
	"testing"
)

func TestStoreSaveLoadBuckets(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	payload := []byte(`{"entities":[]}`)
	if err := s.Save(ctx, map[string][]byte{"entityB": payload, "entityA": []byte(`{}`)}); err != nil {
		t.Fatalf("save: %v", err)
	}
	payload[0] = 'X'
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got["entityB"]) != `{"entities":[]}` {
		t.Fatalf("payload aliased: %s", got["entityB"])
	}
	names, _ := s.Buckets(ctx)
	if len(names) != 2 || names[0] != "entityA" || names[1] != "entityB" {
		t.Fatalf("unexpected buckets %v", names)
	}
	if err := s.Save(ctx, map[string][]byte{"entityA": []byte(`{"entity":{}}`)}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, _ = s.Load(ctx)
	if string(got["entityA"]) != `{"entity":{}}` || len(got) != 2 {
		t.Fatalf("partial save should replace one bucket only: %v", got)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
