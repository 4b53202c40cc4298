package storage

import (
	"context"
	"errors"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"
)

const queueAlreadyExists = "QueueAlreadyExists"

// CreateTables creates the named tables, skipping ones that already exist.
func CreateTables(ctx context.Context, connStr string, names []string) error {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, tablesClientOptions())
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		_, err := svc.NewClient(name).CreateTable(ctx, nil)
		if err != nil {
			var respErr *azcore.ResponseError
			if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
				return err
			}
			log.WithField("table", name).Debug("table already exists")
			continue
		}
		log.WithField("table", name).Info("table created")
	}
	return nil
}

// CreateQueues creates the named queues, skipping ones that already exist.
func CreateQueues(ctx context.Context, connStr string, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		q, err := azqueue.NewQueueClientFromConnectionString(connStr, name, nil)
		if err != nil {
			return err
		}
		_, err = q.Create(ctx, nil)
		if err != nil {
			var respErr *azcore.ResponseError
			if !(errors.As(err, &respErr) && respErr.ErrorCode == queueAlreadyExists) {
				return err
			}
			log.WithField("queue", name).Debug("queue already exists")
			continue
		}
		log.WithField("queue", name).Info("queue created")
	}
	return nil
}
