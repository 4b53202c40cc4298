package storage

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
	DequeueMessage(ctx context.Context, o *azqueue.DequeueMessageOptions) (azqueue.DequeueMessagesResponse, error)
	DeleteMessage(ctx context.Context, messageID string, popReceipt string, o *azqueue.DeleteMessageOptions) (azqueue.DeleteMessageResponse, error)
}

// AzureQueue is a Queue backed by Azure Queue Storage.
type AzureQueue struct {
	client queueClient
	// visibility is how long a dequeued message stays hidden.
	visibility int32
}

// NewAzureQueue connects to the named queue.
func NewAzureQueue(connStr, name string) (*AzureQueue, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	c, err := azqueue.NewQueueClientFromConnectionString(connStr, name, &opts)
	if err != nil {
		return nil, err
	}
	return &AzureQueue{client: c, visibility: 30}, nil
}

func (q *AzureQueue) Enqueue(ctx context.Context, text string) error {
	_, err := q.client.EnqueueMessage(ctx, text, nil)
	return err
}

// Dequeue retrieves a single message from the queue.
func (q *AzureQueue) Dequeue(ctx context.Context) (*Message, error) {
	vis := q.visibility
	resp, err := q.client.DequeueMessage(ctx, &azqueue.DequeueMessageOptions{VisibilityTimeout: &vis})
	if err != nil {
		return nil, err
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}
	m := resp.Messages[0]
	msg := &Message{}
	if m.MessageID != nil {
		msg.ID = *m.MessageID
	}
	if m.PopReceipt != nil {
		msg.PopReceipt = *m.PopReceipt
	}
	if m.MessageText != nil {
		msg.Text = *m.MessageText
	}
	if m.DequeueCount != nil {
		msg.DequeueCount = *m.DequeueCount
	}
	return msg, nil
}

// Delete removes a processed message from the queue.
func (q *AzureQueue) Delete(ctx context.Context, msg Message) error {
	_, err := q.client.DeleteMessage(ctx, msg.ID, msg.PopReceipt, nil)
	return err
}
