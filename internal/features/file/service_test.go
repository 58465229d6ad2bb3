package file

import (
	"bytes"
	"context"
	"io"
	"testing"

	"go-classhub/internal/common/apperr"
	"go-classhub/internal/features/accesslog"
	"go-classhub/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memFileRepo struct {
	files map[primitive.ObjectID]*PublishedFile
}

func (m *memFileRepo) Insert(_ context.Context, f *PublishedFile) error {
	m.files[f.ID] = f
	return nil
}

func (m *memFileRepo) FindByID(_ context.Context, id primitive.ObjectID) (*PublishedFile, error) {
	f, ok := m.files[id]
	if !ok {
		return nil, apperr.NotFound("file not found")
	}
	cp := *f
	return &cp, nil
}

func (m *memFileRepo) Demote(_ context.Context, id primitive.ObjectID) error {
	f, ok := m.files[id]
	if !ok || !f.IsCurrent {
		return apperr.InvalidState("file is not the current version")
	}
	f.IsCurrent = false
	return nil
}

func (m *memFileRepo) Chain(_ context.Context, id primitive.ObjectID) ([]PublishedFile, error) {
	f, ok := m.files[id]
	if !ok {
		return nil, apperr.NotFound("file not found")
	}
	var chain []PublishedFile
	for _, other := range m.files {
		if other.RootFileID == f.RootFileID {
			chain = append(chain, *other)
		}
	}
	return chain, nil
}

func (m *memFileRepo) ExistsByObjectKey(context.Context, string, string) (bool, error) {
	return false, nil
}

type stubAreas struct {
	objects map[string][]byte // keyed by classID/objectKey
}

func (s *stubAreas) QuarantinePut(io.Reader, string) (string, int64, error) { return "", 0, nil }

func (s *stubAreas) QuarantineOpen(string) (io.ReadSeekCloser, error) {
	return nil, apperr.NotFound("quarantine object not found")
}

func (s *stubAreas) QuarantineDelete(string) error { return nil }

func (s *stubAreas) QuarantineExists(string) bool { return false }

func (s *stubAreas) Promote(key, _ string) (string, error) { return key, nil }

func (s *stubAreas) PublishedOpen(classID, key string) (io.ReadSeekCloser, error) {
	data, ok := s.objects[classID+"/"+key]
	if !ok {
		return nil, apperr.NotFound("published object not found: " + key)
	}
	return sectionCloser{bytes.NewReader(data)}, nil
}

func (s *stubAreas) QuarantineKeys() ([]string, error) { return nil, nil }

func (s *stubAreas) PublishedKeys() (map[string][]string, error) { return nil, nil }

type sectionCloser struct{ *bytes.Reader }

func (sectionCloser) Close() error { return nil }

// captureRecorder collects entries synchronously so tests can assert on them.
type captureRecorder struct {
	entries []accesslog.Entry
}

func (c *captureRecorder) Record(entry accesslog.Entry) {
	c.entries = append(c.entries, entry)
}

func newDownloadFixture(files ...*PublishedFile) (*ServiceImpl, *memFileRepo, *stubAreas, *captureRecorder) {
	repo := &memFileRepo{files: map[primitive.ObjectID]*PublishedFile{}}
	areas := &stubAreas{objects: map[string][]byte{}}
	for _, f := range files {
		repo.files[f.ID] = f
		areas.objects[f.ClassID.Hex()+"/"+f.ObjectKey] = []byte("content of " + f.Name)
	}
	rec := &captureRecorder{}
	svc := &ServiceImpl{Repo: repo, Storage: areas, Recorder: rec, Logger: zap.NewNop()}
	return svc, repo, areas, rec
}

func publishedFile(current, deleted bool) *PublishedFile {
	return &PublishedFile{
		ID:         primitive.NewObjectID(),
		ClassID:    primitive.NewObjectID(),
		Name:       "notes.pdf",
		MimeType:   "application/pdf",
		ObjectKey:  "obj_notes.pdf",
		RootFileID: primitive.NewObjectID(),
		Version:    1,
		IsCurrent:  current,
		IsDeleted:  deleted,
	}
}

func TestDownloadPublishedAccessMatrix(t *testing.T) {
	anon := AccessContext{IP: "10.0.0.1", UserAgent: "curl"}
	student := AccessContext{Claims: &utils.UserClaims{UserID: primitive.NewObjectID().Hex(), Role: "student"}}
	admin := AccessContext{Claims: &utils.UserClaims{UserID: primitive.NewObjectID().Hex(), Role: utils.RoleAdmin}}

	tests := []struct {
		name    string
		file    *PublishedFile
		access  AccessContext
		allowed bool
	}{
		{"anonymous current", publishedFile(true, false), anon, true},
		{"student current", publishedFile(true, false), student, true},
		{"anonymous old version", publishedFile(false, false), anon, false},
		{"student old version", publishedFile(false, false), student, false},
		{"anonymous deleted", publishedFile(true, true), anon, false},
		{"student deleted", publishedFile(true, true), student, false},
		{"admin old version", publishedFile(false, false), admin, true},
		{"admin deleted", publishedFile(true, true), admin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := newDownloadFixture(tt.file)
			reader, f, err := svc.DownloadPublished(context.Background(), tt.file.ID, tt.access)
			if !tt.allowed {
				if !apperr.IsKind(err, apperr.KindForbidden) {
					t.Fatalf("error = %v, want Forbidden", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DownloadPublished() error = %v", err)
			}
			defer reader.Close()
			if f.ID != tt.file.ID {
				t.Error("wrong file metadata returned")
			}
		})
	}
}

func TestDownloadPublishedUnknownFile(t *testing.T) {
	svc, _, _, _ := newDownloadFixture()
	_, _, err := svc.DownloadPublished(context.Background(), primitive.NewObjectID(), AccessContext{})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("error = %v, want NotFound", err)
	}
}

func TestDownloadPublishedRecordsAccess(t *testing.T) {
	f := publishedFile(true, false)
	svc, _, _, rec := newDownloadFixture(f)

	uid := primitive.NewObjectID()
	reader, _, err := svc.DownloadPublished(context.Background(), f.ID, AccessContext{
		Claims:    &utils.UserClaims{UserID: uid.Hex(), Role: "student"},
		IP:        "192.0.2.7",
		UserAgent: "firefox",
	})
	if err != nil {
		t.Fatalf("DownloadPublished() error = %v", err)
	}
	reader.Close()

	if len(rec.entries) != 1 {
		t.Fatalf("entries recorded = %d, want 1", len(rec.entries))
	}
	entry := rec.entries[0]
	if entry.FileID != f.ID {
		t.Error("entry should reference the downloaded file")
	}
	if entry.UserID == nil || *entry.UserID != uid {
		t.Error("authenticated download should attribute the user")
	}
	if entry.IP != "192.0.2.7" || entry.UserAgent != "firefox" {
		t.Error("request metadata not carried into the entry")
	}
}

func TestDownloadPublishedAnonymousEntryHasNoUser(t *testing.T) {
	f := publishedFile(true, false)
	svc, _, _, rec := newDownloadFixture(f)

	reader, _, err := svc.DownloadPublished(context.Background(), f.ID, AccessContext{IP: "10.0.0.9"})
	if err != nil {
		t.Fatalf("DownloadPublished() error = %v", err)
	}
	reader.Close()

	if len(rec.entries) != 1 || rec.entries[0].UserID != nil {
		t.Error("anonymous download should record an entry without a user")
	}
}

func TestDownloadPublishedDeniedAccessNotRecorded(t *testing.T) {
	f := publishedFile(false, false)
	svc, _, _, rec := newDownloadFixture(f)

	_, _, err := svc.DownloadPublished(context.Background(), f.ID, AccessContext{})
	if err == nil {
		t.Fatal("expected denial")
	}
	if len(rec.entries) != 0 {
		t.Error("denied downloads must not be recorded")
	}
}
