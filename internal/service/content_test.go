package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"opinian/internal/model"
	"opinian/internal/role"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"Hello, World!", "hello-world"},
		{"  Spaces   everywhere  ", "spaces-everywhere"},
		{"Already-slugged", "already-slugged"},
		{"MixedCASE Title 42", "mixedcase-title-42"},
		{"---dashes---", "dashes"},
	}
	for _, tc := range cases {
		if got := slugify(tc.title); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestSlugCollisionGetsSuffix(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "Acme")
	_, author := createAccount(t, db, "writer", role.SuperUser, &tenant.ID)

	first, err := CreateContent(author, ContentInput{Title: "My Post"}, testMeta)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	second, err := CreateContent(author, ContentInput{Title: "My Post"}, testMeta)
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}

	if first.Content.Slug != "my-post" {
		t.Errorf("first slug = %q, want my-post", first.Content.Slug)
	}
	if second.Content.Slug == first.Content.Slug {
		t.Error("colliding titles must not share a slug")
	}
	if !strings.HasPrefix(second.Content.Slug, "my-post-") {
		t.Errorf("second slug = %q, want my-post-<suffix>", second.Content.Slug)
	}
}

func TestCreateContentUserGoesThroughModeration(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "Acme")
	_, author := createAccount(t, db, "reader", role.User, &tenant.ID)

	result, err := CreateContent(author, ContentInput{Title: "Opinion", PublishIntent: true}, testMeta)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if result.Content.State != model.StatePendingModeration {
		t.Errorf("state = %s, want pending_moderation", result.Content.State)
	}
	if result.QueueItem == nil {
		t.Fatal("expected a moderation queue item")
	}
	if result.QueueItem.Status != model.QueuePending {
		t.Errorf("queue status = %s, want pending", result.QueueItem.Status)
	}
	if result.Content.PublishedAt != nil {
		t.Error("unreviewed content must not carry a publish timestamp")
	}
}

func TestCreateContentPrivilegedPublishesDirectly(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "Acme")

	for _, r := range []role.Role{role.SuperUser, role.Admin, role.SuperAdmin} {
		_, author := createAccount(t, db, "author-"+strings.ToLower(string(r)), r, &tenant.ID)

		result, err := CreateContent(author, ContentInput{Title: fmt.Sprintf("Post by %s", r), PublishIntent: true}, testMeta)
		if err != nil {
			t.Fatalf("%s create failed: %v", r, err)
		}
		if result.Content.State != model.StatePublished {
			t.Errorf("%s: state = %s, want published", r, result.Content.State)
		}
		if result.QueueItem != nil {
			t.Errorf("%s: bypassing roles must not enqueue", r)
		}
		if result.Content.PublishedAt == nil {
			t.Errorf("%s: published content needs a publish timestamp", r)
		}
	}
}

func TestCreateContentDraftSkipsQueue(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "Acme")
	_, author := createAccount(t, db, "reader", role.User, &tenant.ID)

	result, err := CreateContent(author, ContentInput{Title: "Work in progress"}, testMeta)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if result.Content.State != model.StateDraft {
		t.Errorf("state = %s, want draft", result.Content.State)
	}
	if result.QueueItem != nil {
		t.Error("drafts must not be queued for moderation")
	}

	var count int64
	if err := db.Model(&model.ModerationQueueItem{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("queue has %d items, want 0", count)
	}
}

func TestCreateContentScheduledPublishAt(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "Acme")
	_, author := createAccount(t, db, "editor", role.SuperUser, &tenant.ID)

	future := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	result, err := CreateContent(author, ContentInput{
		Title:         "Scheduled",
		PublishIntent: true,
		PublishAt:     &future,
	}, testMeta)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if result.Content.PublishedAt == nil || !result.Content.PublishedAt.Equal(future) {
		t.Errorf("published_at = %v, want %v", result.Content.PublishedAt, future)
	}
}

func TestCreatePageRequiresCapability(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "Acme")
	_, user := createAccount(t, db, "reader", role.User, &tenant.ID)
	_, editor := createAccount(t, db, "editor", role.SuperUser, &tenant.ID)

	if _, err := CreateContent(user, ContentInput{Type: model.ContentTypePage, Title: "About"}, testMeta); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied for User page, got %v", err)
	}

	if _, err := CreateContent(editor, ContentInput{Type: model.ContentTypePage, Title: "About"}, testMeta); err != nil {
		t.Errorf("SuperUser page creation failed: %v", err)
	}
}

func TestCreateContentBannedAuthor(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "Acme")
	account, author := createAccount(t, db, "troll", role.User, &tenant.ID)
	if err := db.Model(account).Update("banned", true).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := CreateContent(author, ContentInput{Title: "Spam", PublishIntent: true}, testMeta); !errors.Is(err, ErrBanned) {
		t.Fatalf("expected ErrBanned, got %v", err)
	}
}

func TestUpdateContentResubmitWhilePending(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "Acme")
	_, author := createAccount(t, db, "reader", role.User, &tenant.ID)

	created, err := CreateContent(author, ContentInput{Title: "Opinion", PublishIntent: true}, testMeta)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = UpdateContent(author, created.Content.ID, ContentPatch{}, true, nil, testMeta)
	if !errors.Is(err, ErrAlreadyPending) {
		t.Fatalf("expected ErrAlreadyPending, got %v", err)
	}
}

func TestWithdrawPendingSubmission(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "Acme")
	_, author := createAccount(t, db, "reader", role.User, &tenant.ID)
	_, admin := createAccount(t, db, "admin", role.Admin, &tenant.ID)

	submitted, err := CreateContent(author, ContentInput{Title: "Opinion", PublishIntent: true}, testMeta)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// withdrawing reverts the record to draft and cancels the queue item
	withdrawn, err := UpdateContent(author, submitted.Content.ID, ContentPatch{}, false, nil, testMeta)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if withdrawn.Content.State != model.StateDraft {
		t.Errorf("state = %s, want draft", withdrawn.Content.State)
	}

	var item model.ModerationQueueItem
	if err := db.First(&item, submitted.QueueItem.ID).Error; err != nil {
		t.Fatal(err)
	}
	if item.Status != model.QueueCancelled {
		t.Errorf("queue status = %s, want cancelled", item.Status)
	}

	// a reviewer acting on the withdrawn item must not publish anything
	if _, err := Resolve(admin, submitted.QueueItem.ID, DecisionApprove, "", testMeta); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved on withdrawn item, got %v", err)
	}
	var content model.Content
	if err := db.First(&content, submitted.Content.ID).Error; err != nil {
		t.Fatal(err)
	}
	if content.State != model.StateDraft {
		t.Errorf("content state = %s, want draft", content.State)
	}

	// the author can resubmit; a fresh pending item is created
	resubmitted, err := UpdateContent(author, submitted.Content.ID, ContentPatch{}, true, nil, testMeta)
	if err != nil {
		t.Fatalf("resubmit after withdraw failed: %v", err)
	}
	if resubmitted.Content.State != model.StatePendingModeration {
		t.Errorf("state = %s, want pending_moderation", resubmitted.Content.State)
	}
	if resubmitted.QueueItem == nil {
		t.Fatal("resubmission did not enqueue")
	}
	if resubmitted.QueueItem.ID == submitted.QueueItem.ID {
		t.Error("resubmission must create a fresh queue item")
	}
}

func TestUpdateContentEditKeepsPublishedState(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "Acme")
	_, author := createAccount(t, db, "editor", role.SuperUser, &tenant.ID)

	created, err := CreateContent(author, ContentInput{Title: "Live", PublishIntent: true}, testMeta)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	firstPublished := *created.Content.PublishedAt

	newBody := "revised"
	updated, err := UpdateContent(author, created.Content.ID, ContentPatch{Body: &newBody}, false, nil, testMeta)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Content.State != model.StatePublished {
		t.Errorf("state = %s, want published", updated.Content.State)
	}
	if updated.Content.Body != "revised" {
		t.Errorf("body = %q, want revised", updated.Content.Body)
	}
	if updated.Content.PublishedAt == nil || !updated.Content.PublishedAt.Equal(firstPublished) {
		t.Error("published_at must be set exactly once")
	}
}

func TestUpdateContentStrangerSeesNotFound(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "Acme")
	_, author := createAccount(t, db, "reader", role.User, &tenant.ID)
	_, stranger := createAccount(t, db, "other", role.User, &tenant.ID)

	created, err := CreateContent(author, ContentInput{Title: "Mine"}, testMeta)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	title := "hijacked"
	_, err = UpdateContent(stranger, created.Content.ID, ContentPatch{Title: &title}, false, nil, testMeta)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnpublishKeepsPublishedAt(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "Acme")
	_, admin := createAccount(t, db, "admin", role.Admin, &tenant.ID)

	created, err := CreateContent(admin, ContentInput{Title: "Live", PublishIntent: true}, testMeta)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	content, err := Unpublish(admin, created.Content.ID, testMeta)
	if err != nil {
		t.Fatalf("unpublish failed: %v", err)
	}
	if content.State != model.StateDraft {
		t.Errorf("state = %s, want draft", content.State)
	}

	var reloaded model.Content
	if err := db.First(&reloaded, content.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.PublishedAt == nil {
		t.Error("unpublish must keep the original publish timestamp")
	}
}

func TestGetContentVisibility(t *testing.T) {
	db := setupTestDB(t)
	tenant := createTenant(t, db, "Acme")
	_, author := createAccount(t, db, "reader", role.User, &tenant.ID)
	_, stranger := createAccount(t, db, "other", role.User, &tenant.ID)
	_, admin := createAccount(t, db, "admin", role.Admin, &tenant.ID)

	draft, err := CreateContent(author, ContentInput{Title: "Secret draft"}, testMeta)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := GetContent(author, draft.Content.ID); err != nil {
		t.Errorf("author cannot read own draft: %v", err)
	}
	if _, err := GetContent(admin, draft.Content.ID); err != nil {
		t.Errorf("tenant admin cannot read draft: %v", err)
	}
	if _, err := GetContent(stranger, draft.Content.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("stranger reading draft: expected ErrNotFound, got %v", err)
	}

	live, err := CreateContent(admin, ContentInput{Title: "Public post", PublishIntent: true}, testMeta)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := GetContent(stranger, live.Content.ID); err != nil {
		t.Errorf("published content must be readable: %v", err)
	}
}
