package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"github.com/spine-examples/todo-list/domain"
	"github.com/spine-examples/todo-list/views"
)

const (
	edmInt64 = "Edm.Int64"

	// viewChunkSize keeps every Data property under the 64 KiB string limit.
	viewChunkSize = 32000
	// maxViewChunks keeps a view entity under the 1 MiB entity limit.
	maxViewChunks = 30
)

var errViewTooLarge = errors.New("view snapshot exceeds table entity size")

type tableClient interface {
	AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error)
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpdateEntity(ctx context.Context, entity []byte, options *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error)
	NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
}

// Tables stores event streams and view snapshots in Azure Table Storage.
type Tables struct {
	events tableClient
	views  tableClient
}

func tablesClientOptions() *aztables.ClientOptions {
	return &aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
}

// NewTables creates a Tables instance from the given connection string.
func NewTables(connStr, eventsTable, viewsTable string) (*Tables, error) {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, tablesClientOptions())
	if err != nil {
		return nil, err
	}
	return &Tables{events: svc.NewClient(eventsTable), views: svc.NewClient(viewsTable)}, nil
}

type tableEntity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

type eventEntity struct {
	tableEntity
	MessageID          string `json:"MessageID"`
	EntityType         string `json:"EntityType"`
	EntityID           string `json:"EntityID"`
	Type               string `json:"Type"`
	Data               string `json:"Data"`
	Version            int64  `json:"Version,string"`
	VersionType        string `json:"Version@odata.type"`
	EventTimestamp     int64  `json:"EventTimestamp,string"`
	EventTimestampType string `json:"EventTimestamp@odata.type"`
	UserID             string `json:"UserID"`
	CausationID        string `json:"CausationID,omitempty"`
}

func streamPartition(entityType, entityID string) string {
	return entityType + "_" + entityID
}

func versionRowKey(v int64) string {
	return fmt.Sprintf("%020d", v)
}

func partitionFilter(pk string) string {
	return "PartitionKey eq '" + strings.ReplaceAll(pk, "'", "''") + "'"
}

func hasStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}

// Load returns the event stream of one aggregate ordered by version.
func (t *Tables) Load(ctx context.Context, entityType, entityID string) ([]domain.EventMessage, error) {
	filter := partitionFilter(streamPartition(entityType, entityID))
	pager := t.events.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	var out []domain.EventMessage
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent eventEntity
			if err := sonic.Unmarshal(raw, &ent); err != nil {
				return nil, fmt.Errorf("decode event entity: %w", err)
			}
			out = append(out, domain.EventMessage{
				ID:          ent.MessageID,
				EntityType:  ent.EntityType,
				EntityID:    ent.EntityID,
				Type:        domain.EventType(ent.Type),
				Data:        []byte(ent.Data),
				Version:     ent.Version,
				Timestamp:   ent.EventTimestamp,
				UserID:      ent.UserID,
				CausationID: ent.CausationID,
			})
		}
	}
	return out, nil
}

// Append inserts msg under its version. The row key makes a second writer of
// the same version fail with a conflict.
func (t *Tables) Append(ctx context.Context, msg domain.EventMessage) error {
	if msg.Version <= 0 {
		return fmt.Errorf("event %s: invalid version %d", msg.Type, msg.Version)
	}
	ent := eventEntity{
		tableEntity:        tableEntity{PartitionKey: streamPartition(msg.EntityType, msg.EntityID), RowKey: versionRowKey(msg.Version)},
		MessageID:          msg.ID,
		EntityType:         msg.EntityType,
		EntityID:           msg.EntityID,
		Type:               string(msg.Type),
		Data:               string(msg.Data),
		Version:            msg.Version,
		VersionType:        edmInt64,
		EventTimestamp:     msg.Timestamp,
		EventTimestampType: edmInt64,
		UserID:             msg.UserID,
		CausationID:        msg.CausationID,
	}
	payload, err := sonic.Marshal(ent)
	if err != nil {
		return err
	}
	if _, err := t.events.AddEntity(ctx, payload, nil); err != nil {
		if hasStatus(err, http.StatusConflict) {
			return domain.ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

// GetView returns the stored snapshot for key.
func (t *Tables) GetView(ctx context.Context, key views.Key) (ViewRecord, bool, error) {
	resp, err := t.views.GetEntity(ctx, string(key.Kind), key.ID, nil)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return ViewRecord{Key: key}, false, nil
		}
		return ViewRecord{}, false, err
	}
	var props map[string]any
	if err := sonic.Unmarshal(resp.Value, &props); err != nil {
		return ViewRecord{}, false, fmt.Errorf("decode view entity %s: %w", key, err)
	}
	data, err := joinChunks(props)
	if err != nil {
		return ViewRecord{}, false, fmt.Errorf("view %s: %w", key, err)
	}
	var ts int64
	if raw, ok := props["EventTimestamp"].(string); ok {
		ts, _ = strconv.ParseInt(raw, 10, 64)
	}
	return ViewRecord{Key: key, Data: data, ETag: string(resp.ETag), EventTimestamp: ts}, true, nil
}

// PutView stores rec guarded by its ETag.
func (t *Tables) PutView(ctx context.Context, rec ViewRecord) error {
	props, err := viewProperties(rec)
	if err != nil {
		return err
	}
	payload, err := sonic.Marshal(props)
	if err != nil {
		return err
	}
	if rec.ETag == "" {
		_, err = t.views.AddEntity(ctx, payload, nil)
		if hasStatus(err, http.StatusConflict) {
			return domain.ErrConcurrencyConflict
		}
		return err
	}
	etag := azcore.ETag(rec.ETag)
	_, err = t.views.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &etag, UpdateMode: aztables.UpdateModeReplace})
	if hasStatus(err, http.StatusPreconditionFailed) || hasStatus(err, http.StatusNotFound) {
		return domain.ErrConcurrencyConflict
	}
	return err
}

// ListViewKeys returns the ids of all stored views of kind.
func (t *Tables) ListViewKeys(ctx context.Context, kind views.Kind) ([]string, error) {
	filter := partitionFilter(string(kind))
	sel := "RowKey"
	pager := t.views.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter, Select: &sel})
	var ids []string
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent tableEntity
			if err := sonic.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			ids = append(ids, ent.RowKey)
		}
	}
	return ids, nil
}

func viewProperties(rec ViewRecord) (map[string]any, error) {
	chunks := splitChunks(string(rec.Data), viewChunkSize)
	if len(chunks) > maxViewChunks {
		return nil, fmt.Errorf("view %s: %w", rec.Key, errViewTooLarge)
	}
	props := map[string]any{
		"PartitionKey":              string(rec.Key.Kind),
		"RowKey":                    rec.Key.ID,
		"Chunks":                    len(chunks),
		"EventTimestamp":            strconv.FormatInt(rec.EventTimestamp, 10),
		"EventTimestamp@odata.type": edmInt64,
	}
	for i, c := range chunks {
		props["Data"+strconv.Itoa(i)] = c
	}
	return props, nil
}

func joinChunks(props map[string]any) ([]byte, error) {
	n, ok := props["Chunks"].(float64)
	if !ok || n < 0 {
		return nil, errors.New("missing chunk count")
	}
	var sb strings.Builder
	for i := 0; i < int(n); i++ {
		part, ok := props["Data"+strconv.Itoa(i)].(string)
		if !ok {
			return nil, fmt.Errorf("missing chunk %d", i)
		}
		sb.WriteString(part)
	}
	return []byte(sb.String()), nil
}

// splitChunks cuts s into parts of at most size bytes without splitting a rune.
func splitChunks(s string, size int) []string {
	var out []string
	for len(s) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
