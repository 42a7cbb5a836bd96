// Package event delivers notifications between rasterdoc components.
//
// Publishers send a payload on a dot-separated topic such as
// "changeinfo.batch". Subscribers register a pattern in which "*" matches
// one segment and "**" matches any number of trailing segments:
//
//	bus := event.NewBus()
//	sub, _ := bus.Subscribe("history.*", func(ctx context.Context, ev event.Event) error {
//		...
//	})
//	defer bus.Unsubscribe(sub)
//
// Delivery is synchronous and follows subscription order. A handler that
// panics or fails does not prevent delivery to the others.
package event
