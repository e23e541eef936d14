package db

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/Laky-64/gologging"
	"github.com/disgoorg/snowflake/v2"
	"github.com/zuchzub/guildtunes/pkg/core/cache"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const autoplayField = "autoplay"

// Database encapsulates the MongoDB connection, the guild settings collection and its cache.
type Database struct {
	Client     *mongo.Client
	DB         *mongo.Database
	GuildDB    *mongo.Collection
	GuildCache *cache.Cache[map[string]interface{}]
}

// InitDatabase connects to uri and pings the server before returning.
func InitDatabase(ctx context.Context, uri, dbName string) (*Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	instance := &Database{
		Client:     client,
		DB:         db,
		GuildDB:    db.Collection("guilds"),
		GuildCache: cache.NewCache[map[string]interface{}](20 * time.Minute),
	}

	if err := instance.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	gologging.InfoF("[DB] The database connection has been successfully established.")
	return instance, nil
}

// Ping verifies the connection to the MongoDB server.
func (db *Database) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx, nil)
}

// GetGuild retrieves a guild's settings document from the cache or database.
// It returns nil without error when the guild has no document. The returned map is a copy.
func (db *Database) GetGuild(ctx context.Context, guildID snowflake.ID) (map[string]interface{}, error) {
	key := toKey(guildID)
	if cached, ok := db.GuildCache.Get(key); ok {
		return maps.Clone(cached), nil
	}

	var guild map[string]interface{}
	err := db.GuildDB.FindOne(ctx, bson.M{"_id": int64(guildID)}).Decode(&guild)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		gologging.ErrorF("[DB] An error occurred while getting guild %s: %v", guildID, err)
		return nil, err
	}

	db.GuildCache.Set(key, guild)
	return maps.Clone(guild), nil
}

// updateGuildField upserts one field of a guild's document and mirrors it into the cache.
func (db *Database) updateGuildField(ctx context.Context, guildID snowflake.ID, key string, value interface{}) error {
	_, err := db.GuildDB.UpdateOne(ctx,
		bson.M{"_id": int64(guildID)},
		bson.M{"$set": bson.M{key: value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}

	cached, _ := db.GuildCache.Get(toKey(guildID))
	db.GuildCache.Set(toKey(guildID), withField(cached, key, value))
	return nil
}

// Autoplay returns the stored autoplay preference of a guild.
// found is false when the guild never set one.
func (db *Database) Autoplay(ctx context.Context, guildID snowflake.ID) (enabled bool, found bool, err error) {
	guild, err := db.GetGuild(ctx, guildID)
	if err != nil || guild == nil {
		return false, false, err
	}
	enabled, found = boolField(guild, autoplayField)
	return enabled, found, nil
}

// SetAutoplay stores the autoplay preference of a guild.
func (db *Database) SetAutoplay(ctx context.Context, guildID snowflake.ID, enabled bool) error {
	return db.updateGuildField(ctx, guildID, autoplayField, enabled)
}

// Close gracefully closes the database connection.
func (db *Database) Close(ctx context.Context) error {
	gologging.InfoF("[DB] Closing the database connection...")
	return db.Client.Disconnect(ctx)
}
