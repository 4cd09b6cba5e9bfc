package services

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"fitforge/internal/cache"
	"fitforge/internal/events"
	"fitforge/internal/models"
	"fitforge/internal/testutil"
	"fitforge/internal/validator"
)

type fixture struct {
	db     *gorm.DB
	v      *validator.Validator
	pubsub *gochannel.GoChannel
	bus    *events.Bus
	cache  *cache.Cache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pubsub := events.NewInProcess(events.NewLogger(logrus.StandardLogger()))
	bus := events.NewBus(pubsub, "test.")
	t.Cleanup(func() { _ = bus.Close() })

	return &fixture{
		db:     testutil.NewDB(t),
		v:      validator.New(),
		pubsub: pubsub,
		bus:    bus,
		cache:  cache.New(nil, ""),
	}
}

func (f *fixture) subscribe(t *testing.T, topic string) <-chan *message.Message {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch, err := f.pubsub.Subscribe(ctx, "test."+topic)
	require.NoError(t, err)
	return ch
}

func (f *fixture) user(t *testing.T, email string, role models.Role) models.User {
	t.Helper()
	u := models.User{Email: email, Name: email, Role: role}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func actorOf(u models.User) Actor {
	return Actor{UserID: u.ID, Email: u.Email, Role: u.Role}
}

var admin = Actor{UserID: 1000, Email: "admin@fitforge.app", Role: models.RoleAdmin}

func validDetails() models.ApplicationDetails {
	return models.ApplicationDetails{
		FullName:        "Jane Doe",
		Email:           "jane@example.com",
		Age:             29,
		Expertise:       []string{"Yoga", "Pilates"},
		Specialization:  "Mobility",
		Bio:             "Ten years on the mat.",
		ExperienceYears: 10,
		AvailableDays:   []string{"Mon", "Wednesday"},
		AvailableTime:   "08:00-12:00",
	}
}

func (f *fixture) trainer(t *testing.T, userID uint, name string, expertise ...string) models.Trainer {
	t.Helper()
	tr := models.Trainer{
		UserID:         userID,
		Name:           name,
		Specialization: "General",
		Expertise:      datatypes.JSONSlice[string](expertise),
	}
	require.NoError(t, f.db.Create(&tr).Error)
	return tr
}

func waitFor(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("expected an event")
		return nil
	}
}
