package mongo

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	appoutbox "estatehub/internal/app/outbox"
	"estatehub/internal/app/uow"
	"estatehub/internal/domain/booking"
	"estatehub/internal/domain/property"
	"estatehub/internal/infra/outbox"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	PropertiesRepo   *PropertyRepository
	ReservationsRepo *ReservationRepository
	Outbox           *outbox.Store
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory misconfigured")

// Begin starts a session and a transaction on it. Read-only units read
// from a snapshot.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.PropertiesRepo == nil || f.ReservationsRepo == nil || f.Outbox == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, errors.Wrap(err, "mongo: start session")
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Snapshot())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, errors.Wrap(err, "mongo: start transaction")
	}
	return &Unit{factory: f, session: session}, nil
}

type Unit struct {
	factory Factory
	session mongo.Session

	once sync.Once
}

func (u *Unit) Properties() property.Repository  { return u.factory.PropertiesRepo }
func (u *Unit) Reservations() booking.Repository { return u.factory.ReservationsRepo }

// Outbox inserts join the session injected by InjectContext.
func (u *Unit) Outbox() appoutbox.Outbox { return u.factory.Outbox }

func (u *Unit) Commit(ctx context.Context) error {
	var err error
	u.once.Do(func() {
		defer u.session.EndSession(ctx)
		if cerr := u.session.CommitTransaction(ctx); cerr != nil {
			if isWriteConflict(cerr) {
				err = errors.Wrap(booking.ErrConcurrentUpdate, "mongo: commit")
				return
			}
			err = errors.Wrap(cerr, "mongo: commit")
		}
	})
	return err
}

func (u *Unit) Rollback(ctx context.Context) error {
	var err error
	u.once.Do(func() {
		defer u.session.EndSession(ctx)
		err = errors.Wrap(u.session.AbortTransaction(ctx), "mongo: abort")
	})
	return err
}

// InjectContext ensures the Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var (
	_ uow.UoWFactory      = Factory{}
	_ uow.ContextInjector = (*Unit)(nil)
)
