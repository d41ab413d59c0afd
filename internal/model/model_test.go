package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUserID(t *testing.T) {
	t.Run("UserID type operations", func(t *testing.T) {
		var uid UserID = "test-user-123"

		if string(uid) != "test-user-123" {
			t.Errorf("Expected string conversion 'test-user-123', got %s", string(uid))
		}

		var uid2 UserID = "test-user-123"
		var uid3 UserID = "different-user"

		if uid != uid2 {
			t.Error("Expected equal UserIDs to be equal")
		}

		if uid == uid3 {
			t.Error("Expected different UserIDs to be different")
		}
	})
}

func TestPostSummary(t *testing.T) {
	now := time.Now()
	post := &Post{
		ID:          "test-post",
		Title:       "Test Post Title",
		Content:     "<p>Test Content</p>",
		Published:   true,
		Owner:       "test-user",
		Views:       7,
		ContentHash: "hash123",
		CreatedAt:   now,
		UpdatedAt:   now.Add(time.Hour),
	}

	s := post.Summary()
	if s.ID != post.ID || s.Title != post.Title || s.Owner != post.Owner {
		t.Errorf("Expected summary to carry identity fields, got %+v", s)
	}
	if !s.Published || s.Views != 7 {
		t.Errorf("Expected published summary with 7 views, got %+v", s)
	}
	if !s.UpdatedAt.Equal(post.UpdatedAt) {
		t.Errorf("Expected updated at %v, got %v", post.UpdatedAt, s.UpdatedAt)
	}
}

func TestDraft(t *testing.T) {
	testCases := []struct {
		name          string
		draft         Draft
		expectedReady bool
		expectedEmpty bool
	}{
		{"both set", Draft{Title: "T", Content: "<p>C</p>"}, true, false},
		{"blank title", Draft{Title: "   ", Content: "<p>C</p>"}, false, false},
		{"blank content", Draft{Title: "T", Content: "\n\t"}, false, false},
		{"zero value", Draft{}, false, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.draft.Ready(); got != tc.expectedReady {
				t.Errorf("Expected Ready() %v, got %v", tc.expectedReady, got)
			}
			if got := tc.draft.Empty(); got != tc.expectedEmpty {
				t.Errorf("Expected Empty() %v, got %v", tc.expectedEmpty, got)
			}
		})
	}
}

func TestDraftJSONShape(t *testing.T) {
	data, err := json.Marshal(Draft{Title: "Hello", Content: "<p>World</p>"})
	if err != nil {
		t.Fatalf("Failed to marshal draft: %v", err)
	}
	expected := `{"title":"Hello","content":"<p>World</p>"}`
	if string(data) != expected {
		t.Errorf("Expected %s, got %s", expected, data)
	}
}

func TestUserHidesPasswordHash(t *testing.T) {
	data, err := json.Marshal(User{ID: "u1", Email: "a@b.c", PasswordHash: "secret"})
	if err != nil {
		t.Fatalf("Failed to marshal user: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Failed to unmarshal user: %v", err)
	}
	if _, ok := m["password_hash"]; ok {
		t.Error("Expected password hash to be omitted")
	}
	if _, ok := m["PasswordHash"]; ok {
		t.Error("Expected password hash to be omitted")
	}
}

func TestMagicLinkValid(t *testing.T) {
	now := time.Now()
	used := now.Add(-time.Minute)

	testCases := []struct {
		name     string
		link     MagicLink
		expected bool
	}{
		{"fresh", MagicLink{ExpiresAt: now.Add(time.Minute)}, true},
		{"expired", MagicLink{ExpiresAt: now.Add(-time.Second)}, false},
		{"used", MagicLink{ExpiresAt: now.Add(time.Minute), UsedAt: &used}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.link.Valid(now); got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}
