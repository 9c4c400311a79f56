package utils

import (
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
)

// ServiceClients holds the AWS clients an estimate batch needs
type ServiceClients struct {
	RDS        rdsiface.RDSAPI
	CloudWatch cloudwatchiface.CloudWatchAPI
}

// CreateServiceClients creates the batch clients from a regional session
func CreateServiceClients(sess *session.Session) *ServiceClients {
	return &ServiceClients{
		RDS:        rds.New(sess),
		CloudWatch: cloudwatch.New(sess),
	}
}
