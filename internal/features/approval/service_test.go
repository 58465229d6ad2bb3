package approval

import (
	"bytes"
	"context"
	"io"
	"testing"

	"go-classhub/internal/common/apperr"
	"go-classhub/internal/features/file"
	"go-classhub/internal/features/notification"
	"go-classhub/internal/features/request"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeRequestRepo struct {
	requests map[primitive.ObjectID]*request.UploadRequest
}

func newFakeRequestRepo(reqs ...*request.UploadRequest) *fakeRequestRepo {
	repo := &fakeRequestRepo{requests: map[primitive.ObjectID]*request.UploadRequest{}}
	for _, r := range reqs {
		repo.requests[r.ID] = r
	}
	return repo
}

func (f *fakeRequestRepo) Create(_ context.Context, req *request.UploadRequest) error {
	f.requests[req.ID] = req
	return nil
}

func (f *fakeRequestRepo) FindByID(_ context.Context, id primitive.ObjectID) (*request.UploadRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, apperr.NotFound("upload request not found")
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequestRepo) FindPending(ctx context.Context, id primitive.ObjectID) (*request.UploadRequest, error) {
	req, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != request.StatusPending {
		return nil, apperr.InvalidState("request is no longer pending")
	}
	return req, nil
}

func (f *fakeRequestRepo) PendingExists(context.Context, *request.UploadRequest) (bool, error) {
	return false, nil
}

func (f *fakeRequestRepo) MarkApproved(_ context.Context, id, publishedFileID, adminID primitive.ObjectID) error {
	req, ok := f.requests[id]
	if !ok || req.Status != request.StatusPending {
		return apperr.InvalidState("request is no longer pending")
	}
	req.Status = request.StatusApproved
	req.PublishedFileID = &publishedFileID
	req.RespondedBy = &adminID
	req.QuarantineKey = ""
	return nil
}

func (f *fakeRequestRepo) MarkRejected(_ context.Context, id primitive.ObjectID, reason string, adminID primitive.ObjectID) error {
	req, ok := f.requests[id]
	if !ok || req.Status != request.StatusPending {
		return apperr.InvalidState("request is no longer pending")
	}
	req.Status = request.StatusRejected
	req.RejectReason = reason
	req.RespondedBy = &adminID
	req.QuarantineKey = ""
	return nil
}

func (f *fakeRequestRepo) DeletePendingOwned(context.Context, primitive.ObjectID, primitive.ObjectID) (*request.UploadRequest, error) {
	return nil, apperr.InvalidState("request is no longer pending")
}

func (f *fakeRequestRepo) ListByUser(context.Context, primitive.ObjectID) ([]request.UploadRequest, error) {
	return nil, nil
}

func (f *fakeRequestRepo) ListPending(context.Context) ([]request.UploadRequest, error) {
	return nil, nil
}

func (f *fakeRequestRepo) List(context.Context, int64, int64) ([]request.UploadRequest, error) {
	return nil, nil
}

func (f *fakeRequestRepo) FindByQuarantineKey(context.Context, string) (*request.UploadRequest, error) {
	return nil, apperr.NotFound("no request references this object")
}

func (f *fakeRequestRepo) EnsureIndexes(context.Context) error { return nil }

type fakeFileRepo struct {
	files map[primitive.ObjectID]*file.PublishedFile
}

func newFakeFileRepo(files ...*file.PublishedFile) *fakeFileRepo {
	repo := &fakeFileRepo{files: map[primitive.ObjectID]*file.PublishedFile{}}
	for _, f := range files {
		repo.files[f.ID] = f
	}
	return repo
}

func (f *fakeFileRepo) Insert(_ context.Context, pf *file.PublishedFile) error {
	if pf.ID.IsZero() {
		pf.ID = primitive.NewObjectID()
	}
	if pf.RootFileID.IsZero() {
		pf.RootFileID = pf.ID
	}
	cp := *pf
	f.files[pf.ID] = &cp
	return nil
}

func (f *fakeFileRepo) FindByID(_ context.Context, id primitive.ObjectID) (*file.PublishedFile, error) {
	pf, ok := f.files[id]
	if !ok {
		return nil, apperr.NotFound("file not found")
	}
	cp := *pf
	return &cp, nil
}

func (f *fakeFileRepo) Demote(_ context.Context, id primitive.ObjectID) error {
	pf, ok := f.files[id]
	if !ok || !pf.IsCurrent {
		return apperr.InvalidState("file is not the current version")
	}
	pf.IsCurrent = false
	return nil
}

func (f *fakeFileRepo) Chain(context.Context, primitive.ObjectID) ([]file.PublishedFile, error) {
	return nil, nil
}

func (f *fakeFileRepo) ExistsByObjectKey(context.Context, string, string) (bool, error) {
	return false, nil
}

type fakeNotificationRepo struct {
	created []notification.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *notification.Notification) error {
	f.created = append(f.created, *n)
	return nil
}

func (f *fakeNotificationRepo) GetByUserID(context.Context, primitive.ObjectID, int64, int64) ([]notification.Notification, int64, error) {
	return nil, 0, nil
}

func (f *fakeNotificationRepo) GetUnreadCount(context.Context, primitive.ObjectID) (int64, error) {
	return 0, nil
}

func (f *fakeNotificationRepo) MarkAsRead(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return nil
}

func (f *fakeNotificationRepo) MarkAllAsRead(context.Context, primitive.ObjectID) error {
	return nil
}

// fakeAreas keeps objects in maps and mirrors the promote retry contract of
// the disk implementation.
type fakeAreas struct {
	quarantine map[string][]byte
	published  map[string]map[string][]byte
}

func newFakeAreas() *fakeAreas {
	return &fakeAreas{
		quarantine: map[string][]byte{},
		published:  map[string]map[string][]byte{},
	}
}

func (f *fakeAreas) QuarantinePut(r io.Reader, declaredName string) (string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, apperr.IOFailure("writing quarantine object", err)
	}
	key := primitive.NewObjectID().Hex() + "_" + declaredName
	f.quarantine[key] = data
	return key, int64(len(data)), nil
}

func (f *fakeAreas) QuarantineOpen(key string) (io.ReadSeekCloser, error) {
	data, ok := f.quarantine[key]
	if !ok {
		return nil, apperr.NotFound("quarantine object not found: " + key)
	}
	return nopReadSeekCloser{bytes.NewReader(data)}, nil
}

func (f *fakeAreas) QuarantineDelete(key string) error {
	delete(f.quarantine, key)
	return nil
}

func (f *fakeAreas) QuarantineExists(key string) bool {
	_, ok := f.quarantine[key]
	return ok
}

func (f *fakeAreas) Promote(key, classID string) (string, error) {
	data, ok := f.quarantine[key]
	if !ok {
		if part, exists := f.published[classID]; exists {
			if _, done := part[key]; done {
				return key, nil
			}
		}
		return "", apperr.NotFound("quarantine object vanished: " + key)
	}
	if f.published[classID] == nil {
		f.published[classID] = map[string][]byte{}
	}
	f.published[classID][key] = data
	delete(f.quarantine, key)
	return key, nil
}

func (f *fakeAreas) PublishedOpen(classID, key string) (io.ReadSeekCloser, error) {
	data, ok := f.published[classID][key]
	if !ok {
		return nil, apperr.NotFound("published object not found: " + key)
	}
	return nopReadSeekCloser{bytes.NewReader(data)}, nil
}

func (f *fakeAreas) QuarantineKeys() ([]string, error) {
	keys := make([]string, 0, len(f.quarantine))
	for k := range f.quarantine {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *fakeAreas) PublishedKeys() (map[string][]string, error) {
	out := map[string][]string{}
	for class, part := range f.published {
		for k := range part {
			out[class] = append(out[class], k)
		}
	}
	return out, nil
}

type nopReadSeekCloser struct{ *bytes.Reader }

func (nopReadSeekCloser) Close() error { return nil }

// fakeTx runs the unit directly. With failErr set it aborts without running
// the unit, modelling a transaction that rolled back.
type fakeTx struct {
	failErr error
}

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.failErr != nil {
		return f.failErr
	}
	return fn(ctx)
}

type fixture struct {
	requests *fakeRequestRepo
	files    *fakeFileRepo
	notifs   *fakeNotificationRepo
	areas    *fakeAreas
	tx       *fakeTx
	svc      Service
}

func newFixture(reqs ...*request.UploadRequest) *fixture {
	f := &fixture{
		requests: newFakeRequestRepo(reqs...),
		files:    newFakeFileRepo(),
		notifs:   &fakeNotificationRepo{},
		areas:    newFakeAreas(),
		tx:       &fakeTx{},
	}
	f.svc = NewService(f.requests, f.files, f.notifs, f.areas, f.tx, zap.NewNop())
	return f
}

func pendingRequest(key string) *request.UploadRequest {
	return &request.UploadRequest{
		ID:            primitive.NewObjectID(),
		ClassID:       primitive.NewObjectID(),
		UserID:        primitive.NewObjectID(),
		FileName:      "notes.pdf",
		MimeType:      "application/pdf",
		Size:          42,
		Status:        request.StatusPending,
		QuarantineKey: key,
	}
}

func TestApproveFirstVersion(t *testing.T) {
	req := pendingRequest("q1_notes.pdf")
	fx := newFixture(req)
	fx.areas.quarantine["q1_notes.pdf"] = []byte("payload")
	admin := primitive.NewObjectID()

	fileID, err := fx.svc.Approve(context.Background(), req.ID, admin)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	pf := fx.files.files[fileID]
	if pf == nil {
		t.Fatal("published file was not inserted")
	}
	if pf.Version != 1 {
		t.Errorf("Version = %d, want 1", pf.Version)
	}
	if pf.RootFileID != pf.ID {
		t.Error("first version should root its own chain")
	}
	if !pf.IsCurrent {
		t.Error("new version should be current")
	}
	if pf.ApprovedBy != admin {
		t.Error("ApprovedBy not set to the deciding admin")
	}

	stored := fx.requests.requests[req.ID]
	if stored.Status != request.StatusApproved {
		t.Errorf("request status = %q, want approved", stored.Status)
	}
	if stored.QuarantineKey != "" {
		t.Error("quarantine key should be cleared on approval")
	}
	if stored.PublishedFileID == nil || *stored.PublishedFileID != fileID {
		t.Error("request should reference the published file")
	}

	if fx.areas.QuarantineExists("q1_notes.pdf") {
		t.Error("object should have left quarantine")
	}
	if _, ok := fx.areas.published[req.ClassID.Hex()]["q1_notes.pdf"]; !ok {
		t.Error("object should be in the class partition")
	}

	if len(fx.notifs.created) != 1 {
		t.Fatalf("notifications created = %d, want 1", len(fx.notifs.created))
	}
	if fx.notifs.created[0].Type != notification.NotificationTypeFileApproved {
		t.Errorf("notification type = %q", fx.notifs.created[0].Type)
	}
	if fx.notifs.created[0].UserID != req.UserID {
		t.Error("notification should go to the requester")
	}
}

func TestApproveUpdateExtendsChain(t *testing.T) {
	prev := &file.PublishedFile{
		ID:        primitive.NewObjectID(),
		ClassID:   primitive.NewObjectID(),
		Name:      "notes.pdf",
		Version:   3,
		IsCurrent: true,
	}
	prev.RootFileID = primitive.NewObjectID()

	req := pendingRequest("q2_notes.pdf")
	req.ClassID = prev.ClassID
	req.IsUpdate = true
	prevID := prev.ID
	req.BasedOnFileID = &prevID

	fx := newFixture(req)
	fx.files.files[prev.ID] = prev
	fx.areas.quarantine["q2_notes.pdf"] = []byte("v4")

	fileID, err := fx.svc.Approve(context.Background(), req.ID, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	pf := fx.files.files[fileID]
	if pf.Version != 4 {
		t.Errorf("Version = %d, want 4", pf.Version)
	}
	if pf.RootFileID != prev.RootFileID {
		t.Error("new version should share the chain root")
	}
	if pf.PrevVersionID == nil || *pf.PrevVersionID != prev.ID {
		t.Error("new version should link its predecessor")
	}
	if fx.files.files[prev.ID].IsCurrent {
		t.Error("predecessor should be demoted")
	}

	current := 0
	for _, f := range fx.files.files {
		if f.RootFileID == prev.RootFileID && f.IsCurrent {
			current++
		}
	}
	if current != 1 {
		t.Errorf("chain has %d current versions, want exactly 1", current)
	}
}

func TestApproveResolvedRequest(t *testing.T) {
	req := pendingRequest("q3")
	req.Status = request.StatusRejected
	fx := newFixture(req)

	_, err := fx.svc.Approve(context.Background(), req.ID, primitive.NewObjectID())
	if !apperr.IsKind(err, apperr.KindInvalidState) {
		t.Fatalf("Approve() error = %v, want InvalidState", err)
	}
	if len(fx.files.files) != 0 || len(fx.notifs.created) != 0 {
		t.Error("resolved request must not produce a file or notification")
	}
}

func TestApproveTwiceSecondFails(t *testing.T) {
	req := pendingRequest("q4_a.txt")
	fx := newFixture(req)
	fx.areas.quarantine["q4_a.txt"] = []byte("x")
	admin := primitive.NewObjectID()

	if _, err := fx.svc.Approve(context.Background(), req.ID, admin); err != nil {
		t.Fatalf("first Approve() error = %v", err)
	}
	_, err := fx.svc.Approve(context.Background(), req.ID, admin)
	if !apperr.IsKind(err, apperr.KindInvalidState) {
		t.Fatalf("second Approve() error = %v, want InvalidState", err)
	}
	if len(fx.files.files) != 1 {
		t.Errorf("published files = %d, want 1", len(fx.files.files))
	}
	if len(fx.notifs.created) != 1 {
		t.Errorf("notifications = %d, want 1", len(fx.notifs.created))
	}
}

func TestApproveMissingObjectLeavesDatabaseUntouched(t *testing.T) {
	req := pendingRequest("gone")
	fx := newFixture(req)
	// Nothing placed in quarantine.

	_, err := fx.svc.Approve(context.Background(), req.ID, primitive.NewObjectID())
	if !apperr.IsKind(err, apperr.KindStorageInconsistency) {
		t.Fatalf("Approve() error = %v, want StorageInconsistency", err)
	}

	stored := fx.requests.requests[req.ID]
	if stored.Status != request.StatusPending {
		t.Error("request must stay pending when promotion fails")
	}
	if len(fx.files.files) != 0 {
		t.Error("no file row may exist without the object")
	}
	if len(fx.notifs.created) != 0 {
		t.Error("no notification on a failed approval")
	}
}

func TestApproveStalePredecessor(t *testing.T) {
	prev := &file.PublishedFile{
		ID:        primitive.NewObjectID(),
		Version:   2,
		IsCurrent: false,
	}
	req := pendingRequest("q5")
	prevID := prev.ID
	req.IsUpdate = true
	req.BasedOnFileID = &prevID

	fx := newFixture(req)
	fx.files.files[prev.ID] = prev
	fx.areas.quarantine["q5"] = []byte("x")

	_, err := fx.svc.Approve(context.Background(), req.ID, primitive.NewObjectID())
	if !apperr.IsKind(err, apperr.KindInvalidState) {
		t.Fatalf("Approve() error = %v, want InvalidState", err)
	}
	if !fx.areas.QuarantineExists("q5") {
		t.Error("object must stay quarantined when the predecessor check fails")
	}
}

func TestApproveRetryAfterFailedCommit(t *testing.T) {
	req := pendingRequest("q6_b.txt")
	fx := newFixture(req)
	fx.areas.quarantine["q6_b.txt"] = []byte("x")
	admin := primitive.NewObjectID()

	fx.tx.failErr = context.DeadlineExceeded
	if _, err := fx.svc.Approve(context.Background(), req.ID, admin); err == nil {
		t.Fatal("Approve() should surface the commit failure")
	}

	stored := fx.requests.requests[req.ID]
	if stored.Status != request.StatusPending {
		t.Fatal("request must stay pending after a failed commit")
	}
	// The object already moved; the retry must find it at the destination.
	if fx.areas.QuarantineExists("q6_b.txt") {
		t.Fatal("object should have been promoted before the commit")
	}

	fx.tx.failErr = nil
	fileID, err := fx.svc.Approve(context.Background(), req.ID, admin)
	if err != nil {
		t.Fatalf("retried Approve() error = %v", err)
	}
	if fx.files.files[fileID] == nil {
		t.Fatal("retry should publish the file")
	}
}

func TestRejectPending(t *testing.T) {
	req := pendingRequest("q7_c.txt")
	fx := newFixture(req)
	fx.areas.quarantine["q7_c.txt"] = []byte("x")
	admin := primitive.NewObjectID()

	if err := fx.svc.Reject(context.Background(), req.ID, admin, "wrong class"); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}

	stored := fx.requests.requests[req.ID]
	if stored.Status != request.StatusRejected {
		t.Errorf("status = %q, want rejected", stored.Status)
	}
	if stored.RejectReason != "wrong class" {
		t.Errorf("RejectReason = %q", stored.RejectReason)
	}
	if fx.areas.QuarantineExists("q7_c.txt") {
		t.Error("quarantine bytes should be deleted on rejection")
	}
	if len(fx.notifs.created) != 1 || fx.notifs.created[0].Type != notification.NotificationTypeFileRejected {
		t.Error("requester should get a rejection notification")
	}
	if len(fx.files.files) != 0 {
		t.Error("rejection must not publish a file")
	}
}

func TestRejectRequiresReason(t *testing.T) {
	req := pendingRequest("q8")
	fx := newFixture(req)
	fx.areas.quarantine["q8"] = []byte("x")

	err := fx.svc.Reject(context.Background(), req.ID, primitive.NewObjectID(), "   ")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("Reject() error = %v, want Validation", err)
	}
	if fx.requests.requests[req.ID].Status != request.StatusPending {
		t.Error("request must stay pending without a reason")
	}
	if !fx.areas.QuarantineExists("q8") {
		t.Error("quarantine bytes must survive a refused rejection")
	}
}

func TestRejectResolvedRequest(t *testing.T) {
	req := pendingRequest("q9")
	req.Status = request.StatusApproved
	fx := newFixture(req)

	err := fx.svc.Reject(context.Background(), req.ID, primitive.NewObjectID(), "late")
	if !apperr.IsKind(err, apperr.KindInvalidState) {
		t.Fatalf("Reject() error = %v, want InvalidState", err)
	}
}
