package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agrichain/subsidy_backend/chain"
	"github.com/agrichain/subsidy_backend/models"
	"github.com/agrichain/subsidy_backend/workflow"
)

// Blockchain exposes the reconciliation engine over REST.
type Blockchain struct {
	engine *workflow.Engine
	log    *logrus.Logger
}

func NewBlockchain(engine *workflow.Engine, log *logrus.Logger) *Blockchain {
	return &Blockchain{engine: engine, log: log}
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

// respondError maps the engine's error taxonomy onto HTTP statuses. A claim
// the ledger disproves is the caller's fault; a ledger we cannot reach is
// ours, and only the payment path surfaces it as an error at all.
func (h *Blockchain) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chain.ErrInvalidReference),
		errors.Is(err, chain.ErrInvalidAddress),
		errors.Is(err, chain.ErrInvalidSchemeID),
		errors.Is(err, chain.ErrTxNotFound),
		errors.Is(err, chain.ErrTxReverted),
		errors.Is(err, chain.ErrWrongTarget):
		fail(c, http.StatusBadRequest, err)
	case errors.Is(err, workflow.ErrFarmerNotFound),
		errors.Is(err, workflow.ErrNotOnLedger):
		fail(c, http.StatusNotFound, err)
	case errors.Is(err, chain.ErrLedgerUnreachable):
		fail(c, http.StatusServiceUnavailable, err)
	default:
		h.log.WithError(err).Error("request failed")
		fail(c, http.StatusInternalServerError, err)
	}
}

func (h *Blockchain) RegisterFarmer(c *gin.Context) {
	var input models.NewFarmer
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	result, err := h.engine.RegisterFarmer(c.Request.Context(), &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, result)
}

func (h *Blockchain) VerifyFarmer(c *gin.Context) {
	var input workflow.VerifyFarmerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	result, err := h.engine.VerifyFarmer(c.Request.Context(), &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, result)
}

func (h *Blockchain) CreateScheme(c *gin.Context) {
	var input models.NewScheme
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	result, err := h.engine.CreateScheme(c.Request.Context(), &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, result)
}

func (h *Blockchain) PaySubsidy(c *gin.Context) {
	var input models.NewPayment
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	payment, err := h.engine.RecordPayment(c.Request.Context(), &input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, payment)
}

func (h *Blockchain) SyncFarmer(c *gin.Context) {
	farmer, err := h.engine.SyncFarmer(c.Request.Context(), c.Param("address"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, farmer)
}

func (h *Blockchain) SyncScheme(c *gin.Context) {
	schemeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	scheme, err := h.engine.SyncScheme(c.Request.Context(), schemeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, scheme)
}

func (h *Blockchain) AutoSyncFarmers(c *gin.Context) {
	result, err := h.engine.AutoSyncFarmers(c.Request.Context(), "api")
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, result)
}

func (h *Blockchain) ListFarmers(c *gin.Context) {
	farmers, err := h.engine.Farmers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, farmers)
}

func (h *Blockchain) ListSchemes(c *gin.Context) {
	schemes, err := h.engine.Schemes(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, schemes)
}

func (h *Blockchain) ListTransactions(c *gin.Context) {
	payments, err := h.engine.Payments(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, payments)
}

func (h *Blockchain) GetFarmer(c *gin.Context) {
	farmer, err := h.engine.FarmerByAddress(c.Request.Context(), c.Param("address"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, farmer)
}

func (h *Blockchain) GetScheme(c *gin.Context) {
	schemeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	scheme, err := h.engine.SchemeByID(c.Request.Context(), schemeID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, scheme)
}

func (h *Blockchain) GetStats(c *gin.Context) {
	stats, err := h.engine.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, stats)
}

func (h *Blockchain) GetBlockNumber(c *gin.Context) {
	n, err := h.engine.LedgerBlockNumber(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, gin.H{"blockNumber": n})
}
