package models

import "testing"

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr bool
		wantK   int
	}{
		{"defaults applied", Query{Question: "what is this"}, false, 5},
		{"explicit top_k kept", Query{Question: "q", TopK: 3}, false, 3},
		{"empty question", Query{}, true, 0},
		{"top_k over max", Query{Question: "q", TopK: 21}, true, 0},
		{"negative top_k", Query{Question: "q", TopK: -1}, true, 0},
		{"top_k at max", Query{Question: "q", TopK: 20}, false, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate(5, 20)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.query.TopK != tt.wantK {
				t.Errorf("TopK = %d, want %d", tt.query.TopK, tt.wantK)
			}
		})
	}
}
