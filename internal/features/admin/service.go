package admin

import (
	"context"
	"fmt"
	"time"

	"go-classhub/internal/features/class"
	"go-classhub/internal/features/request"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ReviewService backs the admin review screen: the pending queue with class
// names joined in, plus an export of the request history.
type ReviewService interface {
	PendingReview(ctx context.Context) ([]request.ReviewItem, error)
	ExportRequests(ctx context.Context, page, limit int64) ([]byte, string, error)
}

type ReviewServiceImpl struct {
	Requests request.Repository
	Registry class.Registry
	Logger   *zap.Logger
}

func NewReviewService(requests request.Repository, registry class.Registry, logger *zap.Logger) ReviewService {
	return &ReviewServiceImpl{
		Requests: requests,
		Registry: registry,
		Logger:   logger,
	}
}

// PendingReview lists pending requests oldest first and joins the class name
// per distinct class. A class that fails to resolve leaves the name blank;
// the queue itself still renders.
func (s *ReviewServiceImpl) PendingReview(ctx context.Context) ([]request.ReviewItem, error) {
	pending, err := s.Requests.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	names := map[primitive.ObjectID]string{}
	items := make([]request.ReviewItem, 0, len(pending))
	for _, req := range pending {
		name, ok := names[req.ClassID]
		if !ok {
			if info, err := s.Registry.Lookup(ctx, req.ClassID); err == nil {
				name = info.Name
			} else {
				s.Logger.Warn("resolving class for review item",
					zap.String("class_id", req.ClassID.Hex()),
					zap.Error(err))
			}
			names[req.ClassID] = name
		}
		items = append(items, request.ReviewItem{UploadRequest: req, ClassName: name})
	}
	return items, nil
}

var exportColumns = []string{
	"ID", "Class", "User", "File Name", "Type", "Size", "Status",
	"Update", "Submitted At", "Responded At", "Reject Reason",
}

// ExportRequests renders a page of the request history as an xlsx workbook.
func (s *ReviewServiceImpl) ExportRequests(ctx context.Context, page, limit int64) ([]byte, string, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 1000 {
		limit = 500
	}
	requests, err := s.Requests.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Upload Requests"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	names := map[primitive.ObjectID]string{}
	for rowIdx, req := range requests {
		className, ok := names[req.ClassID]
		if !ok {
			if info, err := s.Registry.Lookup(ctx, req.ClassID); err == nil {
				className = info.Name
			}
			names[req.ClassID] = className
		}

		respondedAt := ""
		if req.RespondedAt != nil {
			respondedAt = req.RespondedAt.Format("2006-01-02 15:04:05")
		}
		values := []any{
			req.ID.Hex(),
			className,
			req.UserID.Hex(),
			req.FileName,
			req.MimeType,
			req.Size,
			string(req.Status),
			req.IsUpdate,
			req.SubmittedAt.Format("2006-01-02 15:04:05"),
			respondedAt,
			req.RejectReason,
		}
		for colIdx, val := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, val)
		}
	}

	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("upload_requests_%s.xlsx", time.Now().Format("20060102_150405"))
	return buffer.Bytes(), filename, nil
}
