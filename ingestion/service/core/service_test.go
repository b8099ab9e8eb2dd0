package service

import (
	"context"
	"io"
	"log"
	"testing"

	"tripledger/ingestion/source"
	"tripledger/internal/messaging/producer"
	"tripledger/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	msgs   []producer.Message
	refuse bool
}

func (p *recordingPublisher) Submit(msg producer.Message) bool {
	if p.refuse {
		return false
	}
	p.msgs = append(p.msgs, msg)
	return true
}

func newService(p Publisher) *Service {
	return NewService(p, log.New(io.Discard, "", 0))
}

func TestSubmitTrip(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(pub)

	res, err := svc.SubmitTrip(context.Background(), &TripInput{TripID: "T1", VehicleID: "V1", Pings: make([]models.RawPing, 3)})
	require.NoError(t, err)
	_, err = uuid.Parse(res.RequestID)
	assert.NoError(t, err)
	assert.Equal(t, 3, res.PingCount)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "T1", pub.msgs[0].Key)
	msg, ok := pub.msgs[0].Value.(*models.TripMessage)
	require.True(t, ok)
	assert.Equal(t, res.RequestID, msg.RequestID)
	assert.Equal(t, models.DefaultVehicleType, msg.VehicleType)
}

func TestSubmitTrip_Rejects(t *testing.T) {
	svc := newService(&recordingPublisher{})
	_, err := svc.SubmitTrip(context.Background(), &TripInput{VehicleID: "V1"})
	assert.ErrorIs(t, err, ErrInvalidTrip)
	_, err = svc.SubmitTrip(context.Background(), &TripInput{TripID: "T1"})
	assert.ErrorIs(t, err, ErrInvalidTrip)

	svc = newService(&recordingPublisher{refuse: true})
	_, err = svc.SubmitTrip(context.Background(), &TripInput{TripID: "T1", VehicleID: "V1"})
	assert.ErrorIs(t, err, ErrBackpressure)
}

func TestSubmitFile(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(pub)
	doc := &source.SupplierFile{Suppliers: []source.SupplierEntry{{
		SupplierID: "S1",
		Name:       "Supplier One",
		Vehicles: []source.VehicleEntry{{
			VehicleID: "V1",
			Type:      "Heavy-Duty Truck",
			Trips:     []source.TripEntry{{TripID: "T1"}, {TripID: "T2"}},
		}},
	}}}

	n, err := svc.SubmitFile(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	msg := pub.msgs[1].Value.(*models.TripMessage)
	assert.Equal(t, "Supplier One", msg.SupplierName)
	assert.Equal(t, "Heavy-Duty Truck", msg.VehicleType)
}
