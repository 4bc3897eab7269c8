package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"vivbliss/mongo-init/internal/bootstrap"
	"vivbliss/mongo-init/internal/config"
	"vivbliss/mongo-init/internal/orchestrator"
)

const mongoProbeName = "mongo"

// Server error codes the bootstrap distinguishes.
const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
	codeDuplicateKey         = 11000
	codeUserAlreadyExists    = 51003
)

// adminSession abstracts the *mongo.Client calls MongoClient makes so tests
// can inject a fake without a running server.
type adminSession interface {
	RunCommand(ctx context.Context, database string, cmd bson.D) error
	Ping(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

type driverSession struct {
	client *mongo.Client
}

func (s *driverSession) RunCommand(ctx context.Context, database string, cmd bson.D) error {
	return s.client.Database(database).RunCommand(ctx, cmd).Err()
}

func (s *driverSession) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *driverSession) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// MongoClient is the administrative connection used to provision the
// application account. It is owned by the caller and must be closed.
type MongoClient struct {
	cb      *gobreaker.CircuitBreaker
	session adminSession
}

// NewMongoClient builds a driver client from cfg. mongo.Connect starts the
// driver's background topology monitoring, which dials the configured hosts
// right away, but it does not wait for a server: errors returned here come
// from option validation only. No command is sent until CreateUser or Probe.
func NewMongoClient(ctx context.Context, cfg config.MongoConfig, cb *gobreaker.CircuitBreaker) (*MongoClient, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(cfg.AppName).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout).
		SetMonitor(otelmongo.NewMonitor())

	if cfg.RootUsername != "" {
		opts.SetAuth(options.Credential{
			Username:   cfg.RootUsername,
			Password:   cfg.RootPassword,
			AuthSource: cfg.AuthSource,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("creating mongo client: %w", err)
	}

	return &MongoClient{
		cb:      cb,
		session: &driverSession{client: client},
	}, nil
}

// CreateUser selects database and issues a single createUser command for
// grant. Driver errors are returned verbatim, wrapped in the bootstrap
// sentinel that matches them.
func (c *MongoClient) CreateUser(ctx context.Context, database string, grant bootstrap.UserGrant) error {
	cmd := createUserCommand(grant)

	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.session.RunCommand(ctx, database, cmd)
	})
	if err != nil {
		return classifyMongoError(err)
	}
	return nil
}

// Probe pings the primary.
func (c *MongoClient) Probe(ctx context.Context) orchestrator.ProbeResult {
	start := time.Now()

	_, err := c.cb.Execute(func() (any, error) {
		if err := c.session.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}
		return nil, nil
	})

	latency := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		if errors.Is(err, gobreaker.ErrOpenState) {
			errMsg = "circuit open"
		}
		return orchestrator.ProbeResult{
			Name:      mongoProbeName,
			OK:        false,
			LatencyMs: latency,
			Error:     errMsg,
		}
	}

	return orchestrator.ProbeResult{
		Name:      mongoProbeName,
		OK:        true,
		LatencyMs: latency,
	}
}

// Close disconnects the underlying driver client.
func (c *MongoClient) Close(ctx context.Context) error {
	return c.session.Disconnect(ctx)
}

func createUserCommand(grant bootstrap.UserGrant) bson.D {
	roles := make(bson.A, 0, len(grant.Roles))
	for _, r := range grant.Roles {
		roles = append(roles, bson.D{
			{Key: "role", Value: r.Role},
			{Key: "db", Value: r.DB},
		})
	}

	return bson.D{
		{Key: "createUser", Value: grant.User},
		{Key: "pwd", Value: grant.Password},
		{Key: "roles", Value: roles},
	}
}

func classifyMongoError(err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: circuit open: %w", bootstrap.ErrConnection, err)
	case hasErrorCode(err, codeUserAlreadyExists, codeDuplicateKey):
		return fmt.Errorf("%w: %w", bootstrap.ErrUserExists, err)
	case hasErrorCode(err, codeUnauthorized, codeAuthenticationFailed):
		return fmt.Errorf("%w: %w", bootstrap.ErrPrivilege, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%w: %w", bootstrap.ErrConnection, err)
	default:
		return err
	}
}

func hasErrorCode(err error, codes ...int) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	for _, code := range codes {
		if se.HasErrorCode(code) {
			return true
		}
	}
	return false
}
