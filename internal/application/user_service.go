package application

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/campuskit/users-service/internal/domain/entity"
	repo "github.com/campuskit/users-service/internal/domain/repository"
	"github.com/campuskit/users-service/pkg/events"
	"github.com/campuskit/users-service/pkg/helpers"
)

// UserOperations is the contract the service exposes to the boundary.
//
// Upsert branches on identity: a zero id is a creation request, a non-zero
// id is an update request that must reference an existing user. Both
// branches delegate persistence, timestamp stamping and uniqueness
// enforcement to the repository.
type UserOperations interface {
	GetAll(ctx context.Context) ([]entity.User, error)
	GetByID(ctx context.Context, id int64) (entity.User, error)
	GetByName(ctx context.Context, loginName string) (entity.User, error)
	Upsert(ctx context.Context, u entity.User) (entity.User, error)
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
}

// Service implements UserOperations on top of a UserRepository. It is
// stateless: the repository holds all data, the remaining collaborators
// (Elasticsearch index, RabbitMQ publisher) are optional side channels
// that never fail a mutation.
type Service struct {
	Repo         repo.UserRepository
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	Events       *helpers.RabbitPublisher
}

func NewService(r repo.UserRepository, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string, pub *helpers.RabbitPublisher) *Service {
	return &Service{
		Repo:         r,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
		Events:       pub,
	}
}

func (s *Service) GetAll(ctx context.Context) ([]entity.User, error) {
	if s.Logger != nil {
		s.Logger.Debug("retrieving all users")
	}
	return s.Repo.GetAll(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int64) (entity.User, error) {
	if s.Logger != nil {
		s.Logger.WithField("user_id", id).Debug("retrieving user by id")
	}
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) GetByName(ctx context.Context, loginName string) (entity.User, error) {
	if s.Logger != nil {
		s.Logger.WithField("login_name", loginName).Debug("retrieving user by login name")
	}
	return s.Repo.GetByLoginName(ctx, loginName)
}

// Upsert creates the user when its id is zero and updates it otherwise.
// The update branch verifies existence first; a missing target returns
// repo.ErrUserNotFound and nothing is persisted. A login-name collision
// with a different user surfaces as repo.ErrDuplicateLoginName from the
// repository, again with no mutation.
func (s *Service) Upsert(ctx context.Context, u entity.User) (entity.User, error) {
	if u.IsNew() {
		if s.Logger != nil {
			s.Logger.WithField("login_name", u.LoginName).Info("creating new user")
		}
	} else {
		if s.Logger != nil {
			s.Logger.WithField("user_id", u.ID).Info("updating user")
		}
		if _, err := s.Repo.GetByID(ctx, u.ID); err != nil {
			return entity.User{}, err
		}
	}

	action := events.ActionUpdated
	if u.IsNew() {
		action = events.ActionCreated
	}

	persisted, err := s.Repo.Upsert(ctx, u)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("login_name", u.LoginName).Error("upsert failed")
		}
		return entity.User{}, err
	}

	s.indexUser(ctx, persisted)
	s.publish(ctx, events.UserEvent{
		Action:       action,
		UserID:       persisted.ID,
		LoginName:    persisted.LoginName,
		EmailAddress: persisted.EmailAddress,
		FirstName:    persisted.FirstName,
		LastName:     persisted.LastName,
		OccurredAt:   time.Now().UTC(),
	})
	return persisted, nil
}

// Delete removes the user with the given id. Deleting an id that does not
// exist fails with repo.ErrUserNotFound, including the second delete of an
// id that was just removed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if s.Logger != nil {
		s.Logger.WithField("user_id", id).Info("deleting user")
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeFromIndex(ctx, id)
	s.publish(ctx, events.UserEvent{
		Action:     events.ActionDeleted,
		UserID:     id,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// Clear removes every user unconditionally. Administrative operation.
func (s *Service) Clear(ctx context.Context) error {
	if s.Logger != nil {
		s.Logger.Warn("clearing all user data")
	}
	if err := s.Repo.Clear(ctx); err != nil {
		return err
	}
	s.clearIndex(ctx)
	s.publish(ctx, events.UserEvent{
		Action:     events.ActionCleared,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

func (s *Service) publish(ctx context.Context, ev events.UserEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishJSON(ctx, ev); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("action", ev.Action).Warn("publish user event failed")
	}
}

func (s *Service) indexUser(ctx context.Context, u entity.User) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	doc := map[string]any{
		"id":            u.ID,
		"login_name":    u.LoginName,
		"email_address": u.EmailAddress,
		"first_name":    u.FirstName,
		"last_name":     u.LastName,
		"created_at":    u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":    u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{
		Index:      s.ESUsersIndex,
		DocumentID: strconv.FormatInt(u.ID, 10),
		Body:       strings.NewReader(string(b)),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

func (s *Service) removeFromIndex(ctx context.Context, id int64) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESUsersIndex, DocumentID: strconv.FormatInt(id, 10)}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

func (s *Service) clearIndex(ctx context.Context) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	body := `{"query":{"match_all":{}}}`
	req := esapi.DeleteByQueryRequest{Index: []string{s.ESUsersIndex}, Body: strings.NewReader(body)}
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("es clear failed")
		}
		return
	}
	_ = res.Body.Close()
}

// SearchUsers performs a multi_match search over login name, email and
// names. Returns an empty result when no index is configured.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"login_name^2", "email_address", "first_name", "last_name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESUsersIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

var _ UserOperations = (*Service)(nil)
