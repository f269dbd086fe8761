package handlers

import "github.com/gin-gonic/gin"

// UserHandlerInterface defines the methods needed by the user routes.
type UserHandlerInterface interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Refresh(c *gin.Context)
	Logout(c *gin.Context)
	Me(c *gin.Context)
}

// JobHandlerInterface defines the methods needed by the job routes.
type JobHandlerInterface interface {
	CreateJob(c *gin.Context)
	ListJobs(c *gin.Context)
	ListAvailableJobs(c *gin.Context)
	GetJobByID(c *gin.Context)
	GetJobHistory(c *gin.Context)
	UpdateJobDetails(c *gin.Context)
	DeleteJob(c *gin.Context)

	FundJob(c *gin.Context)
	AssignProvider(c *gin.Context)
	AcceptJob(c *gin.Context)
	StartJob(c *gin.Context)
	CompleteJob(c *gin.Context)
	VerifyJob(c *gin.Context)
	CancelJob(c *gin.Context)
	DisputeJob(c *gin.Context)
	RateJob(c *gin.Context)
	AddJobImage(c *gin.Context)
}

// AdminHandlerInterface defines the methods needed by the admin routes.
type AdminHandlerInterface interface {
	PayoutJob(c *gin.Context)
	AutoVerify(c *gin.Context)
	ExportJobs(c *gin.Context)
}

// Ensure handlers implement the interfaces (compile-time check)
var _ UserHandlerInterface = (*UserHandler)(nil)
var _ JobHandlerInterface = (*JobHandler)(nil)
var _ AdminHandlerInterface = (*JobHandler)(nil)
