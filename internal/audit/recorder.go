package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stroytech/stroycrm-backend/pkg/db/models"
	"github.com/stroytech/stroycrm-backend/pkg/logger"
)

// Entry describes a single recorded mutation. OldValues and NewValues are
// serialized to JSON before storage; nil values are stored as NULL.
type Entry struct {
	UserID    *uuid.UUID
	Action    string
	TableName string
	RecordID  string
	OldValues any
	NewValues any
	IPAddress string
	UserAgent string
}

// Recorder persists audit entries. Failures are logged and never propagated
// to the caller: audit must not break the mutation it describes.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type recorder struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewRecorder builds an audit recorder bound to the provided DB.
func NewRecorder(db *gorm.DB, logg *logger.Logger) (Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("audit db handle required")
	}
	return &recorder{db: db, logg: logg}, nil
}

func (r *recorder) Record(ctx context.Context, entry Entry) {
	log := &models.AuditLog{
		UserID:    entry.UserID,
		Action:    entry.Action,
		TableName: entry.TableName,
	}
	if entry.RecordID != "" {
		recordID := entry.RecordID
		log.RecordID = &recordID
	}
	if snapshot, err := marshalSnapshot(entry.OldValues); err != nil {
		r.logErr(ctx, "marshal audit old values", err)
	} else {
		log.OldValues = snapshot
	}
	if snapshot, err := marshalSnapshot(entry.NewValues); err != nil {
		r.logErr(ctx, "marshal audit new values", err)
	} else {
		log.NewValues = snapshot
	}
	if entry.IPAddress != "" {
		ip := entry.IPAddress
		log.IPAddress = &ip
	}
	if entry.UserAgent != "" {
		ua := entry.UserAgent
		log.UserAgent = &ua
	}

	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		r.logErr(ctx, "persist audit entry", err)
	}
}

func (r *recorder) logErr(ctx context.Context, msg string, err error) {
	if r.logg == nil {
		return
	}
	r.logg.Error(ctx, msg, err)
}

func marshalSnapshot(value any) (*string, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	encoded := string(raw)
	return &encoded, nil
}

// RequestMeta extracts the client address and user agent for an audit entry.
func RequestMeta(r *http.Request) (ip, userAgent string) {
	if r == nil {
		return "", ""
	}
	ip = clientIP(r)
	return ip, r.UserAgent()
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
