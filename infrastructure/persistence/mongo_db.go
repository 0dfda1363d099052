package persistence

import (
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NewMongoDb returns a client for the audit store. The caller pings it;
// Connect itself does not dial.
func NewMongoDb(host, port, user, password, dbName string) (*mongo.Client, error) {
	if host == "" {
		return nil, fmt.Errorf("mongo host not configured")
	}
	clientOptions := options.Client().
		ApplyURI(mongoURI(host, port, user, password, dbName)).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)
	return mongo.Connect(clientOptions)
}

func mongoURI(host, port, user, password, dbName string) string {
	u := &url.URL{Scheme: "mongodb", Host: host, Path: "/"}
	if port != "" {
		u.Host = fmt.Sprintf("%s:%s", host, port)
	}
	if user != "" {
		u.User = url.UserPassword(user, password)
		if dbName != "" {
			u.RawQuery = url.Values{"authSource": {"admin"}}.Encode()
		}
	}
	return u.String()
}
