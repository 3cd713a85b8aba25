package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/training-procurement/internal/application/service"
	"github.com/garyjia/training-procurement/internal/domain/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{services: services, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string      `json:"username" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     entity.Role `json:"role" binding:"required"`
}

// RegisterUserRequest is the body of POST /users
type RegisterUserRequest struct {
	Username string      `json:"username" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Name     string      `json:"name"`
	Role     entity.Role `json:"role" binding:"required"`
}

// PurchaseOrderRequest is the body of POST /purchase-orders
type PurchaseOrderRequest struct {
	ClientName          string  `json:"client_name"`
	CompanyName         string  `json:"company_name"`
	Email               string  `json:"email"`
	Phone               string  `json:"phone"`
	TrainingRequirement string  `json:"training_requirement"`
	Technology          string  `json:"technology"`
	Duration            string  `json:"duration"`
	ExpectedStartDate   string  `json:"expected_start_date"`
	Budget              float64 `json:"budget"`
}

// AssignRequest is the body of POST /purchase-orders/:id/assign
type AssignRequest struct {
	TrainerID int64 `json:"trainer_id" binding:"required"`
}

// RespondRequest is the body of POST /training-requests/:id/respond
type RespondRequest struct {
	Decision service.Decision `json:"decision" binding:"required"`
}

// ApproveRequest is the body of POST /invoices/:id/approve
type ApproveRequest struct {
	CommissionPercent *float64 `json:"commission_percent" binding:"required"`
}

// TrainerProfileRequest is the body of PUT /trainers/me
type TrainerProfileRequest struct {
	Name              string              `json:"name"`
	Email             string              `json:"email"`
	Phone             string              `json:"phone"`
	Expertise         []string            `json:"expertise"`
	YearsOfExperience int                 `json:"years_of_experience"`
	Bio               string              `json:"bio"`
	Certifications    []string            `json:"certifications"`
	HourlyRate        float64             `json:"hourly_rate"`
	Availability      entity.Availability `json:"availability"`
	ProfileImage      string              `json:"profile_image"`
	LinkedIn          string              `json:"linkedin"`
}

// CertificationRequest is the body of POST /trainers/me/certifications
type CertificationRequest struct {
	Certification string `json:"certification" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username, password and role are required")
		return
	}

	session, err := h.services.Auth.Login(c.Request.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		h.fail(c, "login", err)
		return
	}
	ok(c, session)
}

// Logout handles POST /api/v1/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.services.Auth.Logout(c.Request.Context(), c.GetString(tokenKey)); err != nil {
		h.fail(c, "logout", err)
		return
	}
	ok(c, nil)
}

// Me handles GET /api/v1/me
func (h *Handlers) Me(c *gin.Context) {
	ok(c, identityFrom(c))
}

// RegisterUser handles POST /api/v1/users
func (h *Handlers) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username, password and role are required")
		return
	}

	user, err := h.services.Auth.Register(c.Request.Context(), req.Username, req.Password, req.Name, req.Role)
	if err != nil {
		h.fail(c, "register_user", err)
		return
	}
	created(c, user)
}

// Dashboard handles GET /api/v1/dashboard
func (h *Handlers) Dashboard(c *gin.Context) {
	summary, err := h.services.Dashboard.Summary(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.fail(c, "dashboard", err)
		return
	}
	ok(c, summary)
}

// InvoiceTotals handles GET /api/v1/dashboard/invoice-totals?status=
func (h *Handlers) InvoiceTotals(c *gin.Context) {
	totals, err := h.services.Dashboard.InvoiceTotals(c.Request.Context(), identityFrom(c), entity.InvoiceStatus(c.Query("status")))
	if err != nil {
		h.fail(c, "invoice_totals", err)
		return
	}
	ok(c, totals)
}

// SubmitPurchaseOrder handles POST /api/v1/purchase-orders
func (h *Handlers) SubmitPurchaseOrder(c *gin.Context) {
	var req PurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	po, err := h.services.PurchaseOrders.Submit(c.Request.Context(), identityFrom(c), service.SubmitPurchaseOrderInput(req))
	if err != nil {
		h.fail(c, "submit_purchase_order", err)
		return
	}
	created(c, po)
}

// ListPurchaseOrders handles GET /api/v1/purchase-orders?status=
func (h *Handlers) ListPurchaseOrders(c *gin.Context) {
	pos, err := h.services.PurchaseOrders.List(c.Request.Context(), identityFrom(c), entity.POStatus(c.Query("status")))
	if err != nil {
		h.fail(c, "list_purchase_orders", err)
		return
	}
	ok(c, pos)
}

// GetPurchaseOrder handles GET /api/v1/purchase-orders/:id
func (h *Handlers) GetPurchaseOrder(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	po, err := h.services.PurchaseOrders.Get(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		h.fail(c, "get_purchase_order", err)
		return
	}
	ok(c, po)
}

// History handles GET /api/v1/history/:entity/:id
func (h *Handlers) History(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	rows, err := h.services.PurchaseOrders.History(c.Request.Context(), identityFrom(c), c.Param("entity"), id)
	if err != nil {
		h.fail(c, "history", err)
		return
	}
	ok(c, rows)
}

// AssignTrainer handles POST /api/v1/purchase-orders/:id/assign
func (h *Handlers) AssignTrainer(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "trainer_id is required")
		return
	}

	request, err := h.services.Assignments.Assign(c.Request.Context(), identityFrom(c), id, req.TrainerID)
	if err != nil {
		h.fail(c, "assign", err)
		return
	}
	created(c, request)
}

// ListTrainingRequests handles GET /api/v1/training-requests?status=
func (h *Handlers) ListTrainingRequests(c *gin.Context) {
	requests, err := h.services.Assignments.List(c.Request.Context(), identityFrom(c), entity.RequestStatus(c.Query("status")))
	if err != nil {
		h.fail(c, "list_training_requests", err)
		return
	}
	ok(c, requests)
}

// RespondToRequest handles POST /api/v1/training-requests/:id/respond
func (h *Handlers) RespondToRequest(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "decision is required")
		return
	}

	request, err := h.services.Assignments.Respond(c.Request.Context(), identityFrom(c), id, req.Decision)
	if err != nil {
		h.fail(c, "respond", err)
		return
	}
	ok(c, request)
}

// CompleteRequest handles POST /api/v1/training-requests/:id/complete
func (h *Handlers) CompleteRequest(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	request, err := h.services.Assignments.Complete(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		h.fail(c, "complete", err)
		return
	}
	ok(c, request)
}

// FileInvoice handles POST /api/v1/training-requests/:id/invoice
func (h *Handlers) FileInvoice(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	invoice, err := h.services.Invoices.FileTrainerInvoice(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		h.fail(c, "file_trainer_invoice", err)
		return
	}
	created(c, invoice)
}

// ListInvoices handles GET /api/v1/invoices?type=&status=
func (h *Handlers) ListInvoices(c *gin.Context) {
	invoices, err := h.services.Invoices.List(c.Request.Context(), identityFrom(c), invoiceQuery(c))
	if err != nil {
		h.fail(c, "list_invoices", err)
		return
	}
	ok(c, invoices)
}

// ApproveInvoice handles POST /api/v1/invoices/:id/approve
func (h *Handlers) ApproveInvoice(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "commission_percent is required")
		return
	}

	invoice, err := h.services.Invoices.ApproveAndForward(c.Request.Context(), identityFrom(c), id, *req.CommissionPercent)
	if err != nil {
		h.fail(c, "approve_and_forward", err)
		return
	}
	created(c, invoice)
}

// PayInvoice handles POST /api/v1/invoices/:id/pay
func (h *Handlers) PayInvoice(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	invoice, err := h.services.Invoices.MarkPaid(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		h.fail(c, "mark_paid", err)
		return
	}
	ok(c, invoice)
}

// ExportInvoices handles GET /api/v1/invoices/export?type=&status=
func (h *Handlers) ExportInvoices(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.services.Invoices.ExportLedger(c.Request.Context(), identityFrom(c), invoiceQuery(c), &buf); err != nil {
		h.fail(c, "export_ledger", err)
		return
	}

	filename := fmt.Sprintf("invoices-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ListTrainers handles GET /api/v1/trainers
func (h *Handlers) ListTrainers(c *gin.Context) {
	trainers, err := h.services.Trainers.List(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.fail(c, "list_trainers", err)
		return
	}
	ok(c, trainers)
}

// GetTrainerByUser handles GET /api/v1/trainers/by-user/:userId
func (h *Handlers) GetTrainerByUser(c *gin.Context) {
	userID, valid := pathID(c, "userId")
	if !valid {
		return
	}

	trainer, err := h.services.Trainers.GetByUserID(c.Request.Context(), identityFrom(c), userID)
	if err != nil {
		h.fail(c, "get_trainer", err)
		return
	}
	ok(c, trainer)
}

// UpdateOwnProfile handles PUT /api/v1/trainers/me
func (h *Handlers) UpdateOwnProfile(c *gin.Context) {
	var req TrainerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	trainer, err := h.services.Trainers.UpdateOwnProfile(c.Request.Context(), identityFrom(c), service.TrainerProfileInput(req))
	if err != nil {
		h.fail(c, "update_profile", err)
		return
	}
	ok(c, trainer)
}

// AddCertification handles POST /api/v1/trainers/me/certifications
func (h *Handlers) AddCertification(c *gin.Context) {
	var req CertificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "certification is required")
		return
	}

	trainer, err := h.services.Trainers.AddCertification(c.Request.Context(), identityFrom(c), req.Certification)
	if err != nil {
		h.fail(c, "add_certification", err)
		return
	}
	ok(c, trainer)
}

// RemoveCertification handles DELETE /api/v1/trainers/me/certifications/:name
func (h *Handlers) RemoveCertification(c *gin.Context) {
	trainer, err := h.services.Trainers.RemoveCertification(c.Request.Context(), identityFrom(c), c.Param("name"))
	if err != nil {
		h.fail(c, "remove_certification", err)
		return
	}
	ok(c, trainer)
}

func invoiceQuery(c *gin.Context) service.InvoiceQuery {
	return service.InvoiceQuery{
		Type:   entity.InvoiceType(c.Query("type")),
		Status: entity.InvoiceStatus(c.Query("status")),
	}
}

// pathID parses a positive integer path parameter, writing a 400 when it is not one
func pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, fmt.Sprintf("invalid %s %q", name, raw))
		return 0, false
	}
	return id, true
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}
