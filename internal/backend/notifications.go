package backend

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) NotificationHistory(ctx context.Context, token string) ([]Notification, error) {
	var history []Notification
	err := c.getJSON(ctx, "/push/history", token, &history)
	return history, err
}

func (c *Client) SendNotification(ctx context.Context, token string, n ManualNotification) error {
	return c.sendJSON(ctx, http.MethodPost, "/push/manual", token, n, nil)
}

func (c *Client) Broadcast(ctx context.Context, token string, b Broadcast) error {
	return c.sendJSON(ctx, http.MethodPost, "/push/broadcast/users-only", token, b, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, token string, id string) error {
	return c.do(ctx, http.MethodDelete, "/push/"+escape(id), token, nil, "", nil)
}

func (c *Client) MyNotifications(ctx context.Context, token string, email string) ([]Notification, error) {
	var list []Notification
	err := c.getJSON(ctx, "/notifications/mine?email="+url.QueryEscape(email), token, &list)
	return list, err
}
