package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/oksasatya/go-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-user-accounts/internal/domain/repository"
)

type userDoc struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	Name           string        `bson:"name"`
	Email          string        `bson:"email"`
	PasswordHash   string        `bson:"password_hash"`
	IsAdmin        bool          `bson:"is_admin"`
	IsBlocked      bool          `bson:"is_blocked"`
	EmailVerified  bool          `bson:"email_verified"`
	ProfilePicture string        `bson:"profile_picture"`
	CreatedAt      time.Time     `bson:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at"`
}

func (d userDoc) toEntity() entity.User {
	return entity.User{
		ID:             d.ID.Hex(),
		Name:           d.Name,
		Email:          d.Email,
		Password:       d.PasswordHash,
		IsAdmin:        d.IsAdmin,
		IsBlocked:      d.IsBlocked,
		EmailVerified:  d.EmailVerified,
		ProfilePicture: d.ProfilePicture,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type UserRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

func NewUserRepository(client *mongo.Client, database, collection string) *UserRepository {
	return &UserRepository{
		client: client,
		coll:   client.Database(database).Collection(collection),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the unique email index that backs ErrDuplicateEmail.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_key"),
	})
	return err
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	now := r.now()
	doc := userDoc{
		ID:             bson.NewObjectID(),
		Name:           u.Name,
		Email:          u.Email,
		PasswordHash:   u.Password,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	*u = doc.toEntity()
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D) (*entity.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u := doc.toEntity()
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *UserRepository) list(ctx context.Context, filter bson.D) ([]entity.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]entity.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toEntity())
	}
	return out, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]entity.User, error) {
	return r.list(ctx, bson.D{})
}

func (r *UserRepository) FindByFilter(ctx context.Context, f entity.UserFilter) ([]entity.User, error) {
	return r.list(ctx, filterDoc(f))
}

func (r *UserRepository) SearchByNameOrEmail(ctx context.Context, q string) ([]entity.User, error) {
	return r.list(ctx, searchDoc(q))
}

func (r *UserRepository) UpdateByID(ctx context.Context, id string, patch entity.UserPatch) (*entity.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, updateDoc(patch, r.now()), opts).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, nil
		case mongo.IsDuplicateKeyError(err):
			return nil, repository.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	u := doc.toEntity()
	return &u, nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// filterDoc matches every constrained flag; an empty filter matches all users.
func filterDoc(f entity.UserFilter) bson.D {
	filter := bson.D{}
	if f.IsAdmin != nil {
		filter = append(filter, bson.E{Key: "is_admin", Value: *f.IsAdmin})
	}
	if f.IsBlocked != nil {
		filter = append(filter, bson.E{Key: "is_blocked", Value: *f.IsBlocked})
	}
	return filter
}

// searchDoc matches q literally and case-insensitively against name or email.
func searchDoc(q string) bson.D {
	rx := bson.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "name", Value: rx}},
		bson.D{{Key: "email", Value: rx}},
	}}}
}

func updateDoc(p entity.UserPatch, now time.Time) bson.D {
	set := bson.D{}
	if p.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *p.Name})
	}
	if p.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *p.Email})
	}
	if p.Password != nil {
		set = append(set, bson.E{Key: "password_hash", Value: *p.Password})
	}
	if p.ProfilePicture != nil {
		set = append(set, bson.E{Key: "profile_picture", Value: *p.ProfilePicture})
	}
	if p.IsAdmin != nil {
		set = append(set, bson.E{Key: "is_admin", Value: *p.IsAdmin})
	}
	if p.IsBlocked != nil {
		set = append(set, bson.E{Key: "is_blocked", Value: *p.IsBlocked})
	}
	if p.EmailVerified != nil {
		set = append(set, bson.E{Key: "email_verified", Value: *p.EmailVerified})
	}
	set = append(set, bson.E{Key: "updated_at", Value: now})
	return bson.D{{Key: "$set", Value: set}}
}

var _ repository.UserRepository = (*UserRepository)(nil)
