package order_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/cucumber/godog"
)

type lifecycleContext struct {
	order *order.Order
	err   error
}

func (c *lifecycleContext) anOrderInStatus(name string) error {
	status, err := order.ParseStatus(name)
	if err != nil {
		return err
	}
	c.order, err = restoreOrderIn(status)
	return err
}

func (c *lifecycleContext) theOrderIsMovedTo(name string) error {
	target, err := order.ParseStatus(name)
	if err != nil {
		// unknown names are rejected like any other invalid move
		c.err = &order.InvalidTransitionError{From: c.order.Status(), To: order.StatusUndefined}
		return nil //nolint:nilerr // recorded for the Then step
	}
	c.err = c.order.TransitionTo(target, kernel.SystemActor, "", time.Now())
	return nil
}

func (c *lifecycleContext) theOrderIsInStatus(name string) error {
	if c.order.Status().String() != name {
		return fmt.Errorf("expected status %s, got %s", name, c.order.Status())
	}
	if c.err != nil && !errors.Is(c.err, order.ErrInvalidTransition) {
		return fmt.Errorf("unexpected error: %w", c.err)
	}
	return nil
}

func (c *lifecycleContext) aStatusChangeEventIsRecorded(from, to string) error {
	events := c.order.PullDomainEvents()
	if len(events) != 1 {
		return fmt.Errorf("expected one event, got %d", len(events))
	}
	changed, ok := events[0].(order.StatusChangedEvent)
	if !ok {
		return fmt.Errorf("expected StatusChangedEvent, got %T", events[0])
	}
	if changed.From != from || changed.To != to {
		return fmt.Errorf("expected %s -> %s, got %s -> %s", from, to, changed.From, changed.To)
	}
	return nil
}

func (c *lifecycleContext) theMoveIsRejected() error {
	if !errors.Is(c.err, order.ErrInvalidTransition) {
		return fmt.Errorf("expected an invalid transition, got %v", c.err)
	}
	if events := c.order.PullDomainEvents(); len(events) != 0 {
		return fmt.Errorf("rejected move recorded %d events", len(events))
	}
	return nil
}

func initializeLifecycleScenario(ctx *godog.ScenarioContext) {
	c := &lifecycleContext{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		c.order = nil
		c.err = nil
		return ctx, nil
	})

	ctx.Step(`^an order in status "([^"]*)"$`, c.anOrderInStatus)
	ctx.Step(`^the order is moved to "([^"]*)"$`, c.theOrderIsMovedTo)
	ctx.Step(`^the order is in status "([^"]*)"$`, c.theOrderIsInStatus)
	ctx.Step(`^a status change event from "([^"]*)" to "([^"]*)" is recorded$`, c.aStatusChangeEventIsRecorded)
	ctx.Step(`^the move is rejected as an invalid transition$`, c.theMoveIsRejected)
}

func TestOrderLifecycleFeature(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeLifecycleScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/order_status.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
