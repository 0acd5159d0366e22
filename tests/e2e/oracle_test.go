package e2e

import (
	"context"
	"errors"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/xydata/oracle/client"
	"github.com/xydata/oracle/crypto/ethsecp256k1"
	"github.com/xydata/oracle/testutil"
	"github.com/xydata/oracle/types"
	oracletypes "github.com/xydata/oracle/x/oracle/types"
)

func expectCode(err error, code uint32) {
	var txErr *client.TxError
	ExpectWithOffset(1, errors.As(err, &txErr)).To(BeTrue(), "expected a tx error, got %v", err)
	ExpectWithOffset(1, txErr.Result.Codespace).To(Equal(oracletypes.ModuleName))
	ExpectWithOffset(1, txErr.Result.Code).To(Equal(code))
}

func attribute(res *types.TxResult, eventType, key string) string {
	ev, ok := res.FindEvent(eventType)
	ExpectWithOffset(1, ok).To(BeTrue(), "missing %s event", eventType)
	value, ok := ev.Attribute(key)
	ExpectWithOffset(1, ok).To(BeTrue(), "missing %s attribute", key)
	return value
}

var _ = Describe("Oracle lifecycle", func() {
	var (
		ctx       context.Context
		cancel    context.CancelFunc
		node      *testutil.Node
		c         *client.Client
		admin     *ethsecp256k1.PrivKey
		requester *ethsecp256k1.PrivKey
	)

	signer := func(key *ethsecp256k1.PrivKey) string {
		return key.Address().String()
	}

	balance := func(addr sdk.AccAddress) int64 {
		acc, err := c.Account(ctx, addr.String())
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return acc.Balances.AmountOf("uxyd").Int64()
	}

	createRequest := func(dataType string, quantity uint64) sdk.AccAddress {
		res, err := c.SignAndBroadcast(ctx, requester, oracletypes.NewMsgCreateRequest(signer(requester), dataType, quantity))
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		addr, err := sdk.AccAddressFromBech32(attribute(res, oracletypes.EventTypeCreateRequest, oracletypes.AttributeKeyRequest))
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return addr
	}

	verify := func(request sdk.AccAddress, dataType string, value uint64) error {
		ts := node.Clock.Now().Unix()
		hash := oracletypes.ComputeProofHash(value, dataType, ts)
		_, err := c.SignAndBroadcast(ctx, admin, oracletypes.NewMsgVerify(signer(admin), request.String(), value, hash, ts))
		return err
	}

	settle := func(request, proof sdk.AccAddress, amount uint64) (*types.TxResult, error) {
		return c.SignAndBroadcast(ctx, requester, oracletypes.NewMsgSettle(signer(requester), request.String(), proof.String(), amount))
	}

	status := func(request sdk.AccAddress) oracletypes.RequestStatus {
		req, err := c.Request(ctx, request.String())
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return req.Status
	}

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		node = testutil.NewNode(GinkgoT())
		c = client.New(node.URL(), 5*time.Second)
		admin = node.Admin
		requester = node.Requester
	})

	AfterEach(func() {
		cancel()
	})

	Context("before the registry is initialized", func() {
		It("refuses requests", func() {
			_, err := c.SignAndBroadcast(ctx, requester, oracletypes.NewMsgCreateRequest(signer(requester), "SOL/USD", 1))
			expectCode(err, oracletypes.ErrNotInitialized.ABCICode())

			_, err = c.Registry(ctx)
			Expect(client.IsNotFound(err)).To(BeTrue())
		})

		It("rejects a fee above the maximum", func() {
			_, err := c.SignAndBroadcast(ctx, admin, oracletypes.NewMsgInitialize(signer(admin), signer(admin), oracletypes.MaxFeeBps+1))
			Expect(err).To(HaveOccurred())

			_, err = c.Registry(ctx)
			Expect(client.IsNotFound(err)).To(BeTrue())
		})
	})

	Context("with an initialized registry", func() {
		BeforeEach(func() {
			_, err := c.SignAndBroadcast(ctx, admin, oracletypes.NewMsgInitialize(signer(admin), signer(admin), 250))
			Expect(err).NotTo(HaveOccurred())
		})

		It("refuses a second initialization", func() {
			_, err := c.SignAndBroadcast(ctx, admin, oracletypes.NewMsgInitialize(signer(admin), signer(admin), 100))
			expectCode(err, oracletypes.ErrAlreadyInitialized.ABCICode())
		})

		It("runs a request from creation to settlement", func() {
			request := createRequest("SOL/USD", 10)

			req, err := c.Request(ctx, request.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(oracletypes.StatusPending))
			Expect(req.Requester).To(Equal(requester.Address()))

			Expect(verify(request, "SOL/USD", 15000)).To(Succeed())
			Expect(status(request)).To(Equal(oracletypes.StatusVerified))

			proof, err := c.RequestProof(ctx, request.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(proof.Proof.DataValue).To(Equal(uint64(15000)))
			Expect(proof.CID).NotTo(BeEmpty())

			buybackBefore := balance(node.Buyback)
			treasuryBefore := balance(node.Treasury)
			payerBefore := balance(requester.Address())

			res, err := settle(request, oracletypes.ProofAddress(request), 1000)
			Expect(err).NotTo(HaveOccurred())
			Expect(attribute(res, oracletypes.EventTypeSettleRequest, oracletypes.AttributeKeyBuyback)).To(Equal("800"))
			Expect(attribute(res, oracletypes.EventTypeSettleRequest, oracletypes.AttributeKeyTreasury)).To(Equal("200"))

			Expect(balance(node.Buyback) - buybackBefore).To(BeEquivalentTo(800))
			Expect(balance(node.Treasury) - treasuryBefore).To(BeEquivalentTo(200))
			Expect(payerBefore - balance(requester.Address())).To(BeEquivalentTo(1000))

			req, err = c.Request(ctx, request.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(oracletypes.StatusSettled))
			Expect(req.PaymentAmount).To(Equal(uint64(1000)))

			registry, err := c.Registry(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(registry.Registry.TotalRequests).To(Equal(uint64(1)))
			Expect(registry.Registry.TotalFeesCollected).To(Equal(uint64(1000)))
		})

		It("only lets the admin verify", func() {
			request := createRequest("SOL/USD", 1)
			ts := node.Clock.Now().Unix()
			hash := oracletypes.ComputeProofHash(1, "SOL/USD", ts)

			_, err := c.SignAndBroadcast(ctx, requester, oracletypes.NewMsgVerify(signer(requester), request.String(), 1, hash, ts))
			expectCode(err, oracletypes.ErrUnauthorized.ABCICode())
			Expect(status(request)).To(Equal(oracletypes.StatusPending))
		})

		It("refuses a proof hash that does not bind the observation", func() {
			request := createRequest("SOL/USD", 1)
			ts := node.Clock.Now().Unix()
			hash := oracletypes.ComputeProofHash(2, "SOL/USD", ts)

			_, err := c.SignAndBroadcast(ctx, admin, oracletypes.NewMsgVerify(signer(admin), request.String(), 1, hash, ts))
			expectCode(err, oracletypes.ErrProofVerificationFailed.ABCICode())
			Expect(status(request)).To(Equal(oracletypes.StatusPending))
		})

		It("enforces the request lifecycle", func() {
			request := createRequest("ETH/USD", 1)
			proof := oracletypes.ProofAddress(request)

			_, err := settle(request, proof, 10)
			Expect(err).To(HaveOccurred())

			Expect(verify(request, "ETH/USD", 3000)).To(Succeed())
			expectCode(verify(request, "ETH/USD", 3001), oracletypes.ErrInvalidRequestStatus.ABCICode())

			_, err = settle(request, proof, 10)
			Expect(err).NotTo(HaveOccurred())
			_, err = settle(request, proof, 10)
			expectCode(err, oracletypes.ErrInvalidRequestStatus.ABCICode())
		})

		It("refuses a proof of another request", func() {
			first := createRequest("SOL/USD", 1)
			second := createRequest("SOL/USD", 1)
			Expect(verify(first, "SOL/USD", 1)).To(Succeed())
			Expect(verify(second, "SOL/USD", 2)).To(Succeed())

			_, err := settle(second, oracletypes.ProofAddress(first), 10)
			expectCode(err, oracletypes.ErrProofMismatch.ABCICode())
			Expect(status(second)).To(Equal(oracletypes.StatusVerified))
		})

		It("lets the admin reject and update the fee", func() {
			request := createRequest("SOL/USD", 1)
			_, err := c.SignAndBroadcast(ctx, admin, oracletypes.NewMsgReject(signer(admin), request.String(), "feed unavailable"))
			Expect(err).NotTo(HaveOccurred())
			Expect(status(request)).To(Equal(oracletypes.StatusRejected))

			_, err = c.SignAndBroadcast(ctx, requester, oracletypes.NewMsgUpdateConfig(signer(requester), 100))
			expectCode(err, oracletypes.ErrUnauthorized.ABCICode())

			_, err = c.SignAndBroadcast(ctx, admin, oracletypes.NewMsgUpdateConfig(signer(admin), 100))
			Expect(err).NotTo(HaveOccurred())
			registry, err := c.Registry(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(registry.Registry.FeeBps).To(BeEquivalentTo(100))
		})
	})
})
