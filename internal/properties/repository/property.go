package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingsrepo "stayhub/internal/bookings/repository"
	propertieserrors "stayhub/internal/properties/errors"
	"stayhub/pkg/config"
	"stayhub/pkg/model"
	"stayhub/pkg/sanitizer"
)

const (
	CollectionName = "Properties"
)

type mongoPropertyRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	bookings   *mongo.Collection
}

type PropertyRepository interface {
	Create(ctx context.Context, property *model.Property) error
	FindByID(ctx context.Context, id string) (*model.Property, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Property, error)
	FindByHost(ctx context.Context, hostID string, limit int, offset int64) ([]*model.Property, error)
	Search(ctx context.Context, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, error)
	Update(ctx context.Context, id string, update *model.PropertyUpdate) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

func NewMongoPropertyRepository(cfg *config.Config) PropertyRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPropertyRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		bookings:   db.Collection(bookingsrepo.CollectionName),
	}
}

func (r *mongoPropertyRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoPropertyRepository) Create(ctx context.Context, property *model.Property) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	property.CreatedAt = now
	property.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, property)
	if err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		property.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPropertyRepository) FindByID(ctx context.Context, id string) (*model.Property, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", propertieserrors.ErrInvalidID, id)
	}

	var property model.Property
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, propertieserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find property: %w", err)
	}

	return &property, nil
}

func (r *mongoPropertyRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Property, error) {
	return r.find(ctx, bson.M{}, limit, offset)
}

func (r *mongoPropertyRepository) FindByHost(ctx context.Context, hostID string, limit int, offset int64) ([]*model.Property, error) {
	return r.find(ctx, bson.M{"host_id": hostID}, limit, offset)
}

// Search filters the catalog. The location term is regex-escaped before it
// reaches $regex; raw user input there is a ReDoS vector. A date range
// excludes properties holding an active booking that overlaps it, using the
// same half-open comparison as the conflict check.
func (r *mongoPropertyRepository) Search(ctx context.Context, filter *model.PropertyFilter, limit int, offset int64) ([]*model.Property, error) {
	query := bson.M{}

	if filter.Location != "" {
		query["location"] = bson.M{
			"$regex":   sanitizer.EscapeSearchTerm(filter.Location),
			"$options": "i",
		}
	}
	if filter.Guests > 0 {
		query["max_guests"] = bson.M{"$gte": filter.Guests}
	}
	if filter.MaxPrice > 0 {
		query["price"] = bson.M{"$lte": filter.MaxPrice}
	}

	if filter.CheckIn != nil && filter.CheckOut != nil {
		bookedIDs, err := r.bookedPropertyIDs(ctx, *filter.CheckIn, *filter.CheckOut)
		if err != nil {
			return nil, err
		}
		if len(bookedIDs) > 0 {
			query["_id"] = bson.M{"$nin": bookedIDs}
		}
	}

	return r.find(ctx, query, limit, offset)
}

// bookedPropertyIDs returns the object IDs of properties with an active
// booking overlapping [checkIn, checkOut).
func (r *mongoPropertyRepository) bookedPropertyIDs(ctx context.Context, checkIn, checkOut time.Time) ([]primitive.ObjectID, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":    bson.M{"$in": bson.A{model.BookingPending, model.BookingConfirmed}},
		"check_in":  bson.M{"$lt": checkOut},
		"check_out": bson.M{"$gt": checkIn},
	}

	rawIDs, err := r.bookings.Distinct(ctx, "property_id", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find booked properties: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		if s, ok := raw.(string); ok {
			if oid, err := primitive.ObjectIDFromHex(s); err == nil {
				ids = append(ids, oid)
			}
		}
	}
	return ids, nil
}

func (r *mongoPropertyRepository) find(ctx context.Context, query bson.M, limit int, offset int64) ([]*model.Property, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find properties: %w", err)
	}
	defer cursor.Close(ctx)

	var properties []*model.Property
	if err = cursor.All(ctx, &properties); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}

	return properties, nil
}

func (r *mongoPropertyRepository) Update(ctx context.Context, id string, update *model.PropertyUpdate) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", propertieserrors.ErrInvalidID, id)
	}

	fields := bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)}
	if update.Title != "" {
		fields["title"] = update.Title
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.Location != "" {
		fields["location"] = update.Location
	}
	if update.PropertyType != "" {
		fields["property_type"] = update.PropertyType
	}
	if update.MaxGuests != nil {
		fields["max_guests"] = *update.MaxGuests
	}
	if update.Price != nil {
		fields["price"] = *update.Price
	}
	if update.Images != nil {
		fields["images"] = update.Images
	}
	if update.Amenities != nil {
		fields["amenities"] = update.Amenities
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, propertieserrors.ErrNotFound
	}

	return result, nil
}

func (r *mongoPropertyRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", propertieserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if result.DeletedCount == 0 {
		return propertieserrors.ErrNotFound
	}

	return nil
}

func (r *mongoPropertyRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}

	return count, nil
}
