package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	domainerrors "thermasense/contexts/building-comfort/thermostat-engine/domain/errors"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates or updates the thermostat tables.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&zoneModel{},
		&userModel{},
		&voteModel{},
		&historyModel{},
		&outboxModel{},
	); err != nil {
		return r.logError("thermostat_repo_migrate_failed", err)
	}
	return nil
}

func (r *Repository) GetZone(ctx context.Context, zoneID string) (entities.Zone, error) {
	var row zoneModel
	err := r.db.WithContext(ctx).
		Where("zone_id = ?", strings.TrimSpace(zoneID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Zone{}, domainerrors.ErrZoneNotFound
		}
		return entities.Zone{}, r.logError("thermostat_repo_get_zone_failed", err, "zone_id", zoneID)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListZones(ctx context.Context) ([]entities.Zone, error) {
	var rows []zoneModel
	if err := r.db.WithContext(ctx).Order("zone_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("thermostat_repo_list_zones_failed", err)
	}
	items := make([]entities.Zone, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateZone(ctx context.Context, zone entities.Zone) error {
	row := zoneModelFromEntity(zone)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("thermostat_repo_create_zone_failed", err, "zone_id", zone.ZoneID)
	}
	return nil
}

func (r *Repository) RenameZone(ctx context.Context, zoneID string, name string) error {
	result := r.db.WithContext(ctx).
		Model(&zoneModel{}).
		Where("zone_id = ?", strings.TrimSpace(zoneID)).
		Update("name", name)
	if result.Error != nil {
		return r.logError("thermostat_repo_rename_zone_failed", result.Error, "zone_id", zoneID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrZoneNotFound
	}
	return nil
}

func (r *Repository) AppendVote(ctx context.Context, vote entities.Vote) (entities.Vote, error) {
	row := voteModelFromEntity(vote)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return entities.Vote{}, domainerrors.ErrConflict
		}
		return entities.Vote{}, r.logError("thermostat_repo_append_vote_failed", err,
			"zone_id", vote.ZoneID,
			"user_id", vote.UserID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListRecentVotes(ctx context.Context, zoneID string, since time.Time) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("zone_id = ? AND created_at >= ?", strings.TrimSpace(zoneID), since.UTC()).
		Order("created_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, r.logError("thermostat_repo_list_recent_votes_failed", err, "zone_id", zoneID)
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// CountVotesPerUser answers for every id with a single grouped query.
func (r *Repository) CountVotesPerUser(ctx context.Context, userIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		UserID string
		Total  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Select("user_id, COUNT(*) AS total").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).
		Error; err != nil {
		return nil, r.logError("thermostat_repo_count_votes_per_user_failed", err, "user_count", len(userIDs))
	}
	for _, row := range rows {
		counts[row.UserID] = int(row.Total)
	}
	return counts, nil
}

func (r *Repository) CountVotesByValue(ctx context.Context, zoneID string, since time.Time) (map[entities.VoteValue]int, error) {
	var rows []struct {
		Value int
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Select("value, COUNT(*) AS total").
		Where("zone_id = ? AND created_at >= ?", strings.TrimSpace(zoneID), since.UTC()).
		Group("value").
		Scan(&rows).
		Error; err != nil {
		return nil, r.logError("thermostat_repo_count_votes_by_value_failed", err, "zone_id", zoneID)
	}
	counts := make(map[entities.VoteValue]int, len(rows))
	for _, row := range rows {
		counts[entities.VoteValue(row.Value)] = int(row.Total)
	}
	return counts, nil
}

// GetUsers loads every known user among userIDs with a single query.
func (r *Repository) GetUsers(ctx context.Context, userIDs []string) (map[string]entities.User, error) {
	users := make(map[string]entities.User, len(userIDs))
	if len(userIDs) == 0 {
		return users, nil
	}
	var rows []userModel
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&rows).
		Error; err != nil {
		return nil, r.logError("thermostat_repo_get_users_failed", err, "user_count", len(userIDs))
	}
	for _, row := range rows {
		users[row.UserID] = row.toEntity()
	}
	return users, nil
}

func (r *Repository) TouchUser(ctx context.Context, userID string, seenAt time.Time) (entities.User, error) {
	userID = strings.TrimSpace(userID)
	row := userModel{
		UserID:      userID,
		FirstSeenAt: seenAt.UTC(),
		LastSeenAt:  seenAt.UTC(),
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_seen_at"}),
		}).
		Create(&row).
		Error; err != nil {
		return entities.User{}, r.logError("thermostat_repo_touch_user_failed", err, "user_id", userID)
	}

	var stored userModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&stored).
		Error; err != nil {
		return entities.User{}, r.logError("thermostat_repo_touch_user_reload_failed", err, "user_id", userID)
	}
	return stored.toEntity(), nil
}

func (r *Repository) ListHistory(ctx context.Context, zoneID string, since time.Time) ([]entities.HistoryRecord, error) {
	var rows []historyModel
	if err := r.db.WithContext(ctx).
		Where("zone_id = ? AND recorded_at >= ?", strings.TrimSpace(zoneID), since.UTC()).
		Order("recorded_at ASC, id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, r.logError("thermostat_repo_list_history_failed", err, "zone_id", zoneID)
	}
	items := make([]entities.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// CommitRecommendation writes zone temperatures, the history snapshot and the
// outbox event in one transaction.
func (r *Repository) CommitRecommendation(ctx context.Context, commit ports.RecommendationCommit) (entities.HistoryRecord, error) {
	zoneID := strings.TrimSpace(commit.ZoneID)
	current := commit.CurrentTemp.Round(entities.TemperaturePlaces)
	recommended := commit.RecommendedTemp.Round(entities.TemperaturePlaces)

	var outboxRow *outboxModel
	if commit.Event != nil {
		payload, err := json.Marshal(commit.Event)
		if err != nil {
			return entities.HistoryRecord{}, err
		}
		outboxRow = &outboxModel{
			OutboxID:     commit.Event.EventID,
			EventType:    commit.Event.EventType,
			PartitionKey: commit.Event.PartitionKey,
			Payload:      payload,
			Status:       outboxStatusPending,
			CreatedAt:    commit.Timestamp.UTC(),
		}
	}

	history := historyModel{
		ZoneID:          zoneID,
		CurrentTemp:     current,
		RecommendedTemp: recommended,
		RecordedAt:      commit.Timestamp.UTC(),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&zoneModel{}).
			Where("zone_id = ?", zoneID).
			Updates(map[string]any{
				"current_temp":     current,
				"recommended_temp": recommended,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrZoneNotFound
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		if outboxRow != nil {
			if err := tx.Create(outboxRow).Error; err != nil {
				if isUniqueViolation(err) {
					return domainerrors.ErrConflict
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrZoneNotFound) || errors.Is(err, domainerrors.ErrConflict) {
			return entities.HistoryRecord{}, err
		}
		return entities.HistoryRecord{}, r.logError("thermostat_repo_commit_recommendation_failed", err, "zone_id", zoneID)
	}
	return history.toEntity(), nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, r.logError("thermostat_repo_list_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("thermostat_repo_mark_outbox_failed", result.Error, "outbox_id", outboxID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "building-comfort/thermostat-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("thermostat repository operation failed", fields...)
	return err
}

type zoneModel struct {
	ZoneID          string          `gorm:"column:zone_id;primaryKey"`
	Name            string          `gorm:"column:name;not null"`
	CurrentTemp     decimal.Decimal `gorm:"column:current_temp;type:numeric(4,1);not null"`
	RecommendedTemp decimal.Decimal `gorm:"column:recommended_temp;type:numeric(4,1);not null"`
}

func (zoneModel) TableName() string {
	return "zones"
}

func zoneModelFromEntity(zone entities.Zone) zoneModel {
	return zoneModel{
		ZoneID:          strings.TrimSpace(zone.ZoneID),
		Name:            zone.Name,
		CurrentTemp:     zone.CurrentTemp.Round(entities.TemperaturePlaces),
		RecommendedTemp: zone.RecommendedTemp.Round(entities.TemperaturePlaces),
	}
}

func (m zoneModel) toEntity() entities.Zone {
	return entities.Zone{
		ZoneID:          m.ZoneID,
		Name:            m.Name,
		CurrentTemp:     m.CurrentTemp,
		RecommendedTemp: m.RecommendedTemp,
	}
}

type userModel struct {
	UserID      string    `gorm:"column:user_id;primaryKey"`
	FirstSeenAt time.Time `gorm:"column:first_seen_at;not null"`
	LastSeenAt  time.Time `gorm:"column:last_seen_at;not null"`
}

func (userModel) TableName() string {
	return "users"
}

func (m userModel) toEntity() entities.User {
	return entities.User{
		UserID:      m.UserID,
		FirstSeenAt: m.FirstSeenAt.UTC(),
		LastSeenAt:  m.LastSeenAt.UTC(),
	}
}

type voteModel struct {
	VoteID    string    `gorm:"column:vote_id;primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;index"`
	ZoneID    string    `gorm:"column:zone_id;not null;index:idx_votes_zone_created,priority:1"`
	Value     int       `gorm:"column:value;type:smallint;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_votes_zone_created,priority:2"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		VoteID:    strings.TrimSpace(vote.VoteID),
		UserID:    strings.TrimSpace(vote.UserID),
		ZoneID:    strings.TrimSpace(vote.ZoneID),
		Value:     int(vote.Value),
		CreatedAt: vote.CreatedAt.UTC(),
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:    m.VoteID,
		UserID:    m.UserID,
		ZoneID:    m.ZoneID,
		Value:     entities.VoteValue(m.Value),
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type historyModel struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ZoneID          string          `gorm:"column:zone_id;not null;index:idx_history_zone_recorded,priority:1"`
	CurrentTemp     decimal.Decimal `gorm:"column:current_temp;type:numeric(4,1);not null"`
	RecommendedTemp decimal.Decimal `gorm:"column:recommended_temp;type:numeric(4,1);not null"`
	RecordedAt      time.Time       `gorm:"column:recorded_at;not null;index:idx_history_zone_recorded,priority:2"`
}

func (historyModel) TableName() string {
	return "temperature_history"
}

func (m historyModel) toEntity() entities.HistoryRecord {
	return entities.HistoryRecord{
		ID:              m.ID,
		ZoneID:          m.ZoneID,
		CurrentTemp:     m.CurrentTemp,
		RecommendedTemp: m.RecommendedTemp,
		Timestamp:       m.RecordedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "thermostat_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var (
	_ ports.ZoneRepository       = (*Repository)(nil)
	_ ports.VoteRepository       = (*Repository)(nil)
	_ ports.UserRepository       = (*Repository)(nil)
	_ ports.HistoryRepository    = (*Repository)(nil)
	_ ports.RecommendationWriter = (*Repository)(nil)
	_ ports.OutboxRepository     = (*Repository)(nil)
)
