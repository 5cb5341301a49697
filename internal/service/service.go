package service

type Services struct {
	Events   *EventService
	Bookings *BookingService
	Payments *PaymentService
}

func NewServices(store Store, publisher Publisher, searcher EventSearcher, gateway PaymentGateway) *Services {
	bookingService := NewBookingService(store, publisher)
	paymentService := NewPaymentService(store, publisher, bookingService, gateway)
	eventService := NewEventService(store, searcher)

	return &Services{
		Events:   eventService,
		Bookings: bookingService,
		Payments: paymentService,
	}
}
