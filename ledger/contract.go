package ledger

import (
	"crypto/x509"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-gateway/pkg/identity"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

// Contract the minimal contract invocation surface of the access registry.
// Satisfied by *client.Contract from the Fabric gateway SDK.
type Contract interface {
	// EvaluateTransaction query ledger state, no side effects
	EvaluateTransaction(name string, args ...string) ([]byte, error)
	// SubmitTransaction submit a state-mutating transaction synchronously,
	// blocking until it is committed to the ledger
	SubmitTransaction(name string, args ...string) ([]byte, error)
}

// readOnlyContract Contract wrapper refusing all state mutations
type readOnlyContract struct {
	core Contract
}

// EvaluateTransaction query ledger state, no side effects
func (c *readOnlyContract) EvaluateTransaction(name string, args ...string) ([]byte, error) {
	return c.core.EvaluateTransaction(name, args...)
}

// SubmitTransaction always refused in a read-only context
func (c *readOnlyContract) SubmitTransaction(name string, _ ...string) ([]byte, error) {
	return nil, fmt.Errorf("refusing to submit '%s' [%w]", name, ErrReadOnlyContext)
}

/*
AsReadOnly wrap a contract so state mutations are refused

	@param core Contract - the underlying contract binding
	@returns read-only contract
*/
func AsReadOnly(core Contract) Contract {
	return &readOnlyContract{core: core}
}

// GatewayParams Fabric gateway connection parameters
type GatewayParams struct {
	// MSPID the membership service provider ID of the caller's organization
	MSPID string `validate:"required"`
	// CertPath file path to the caller's enrollment certificate PEM
	CertPath string `validate:"required,file"`
	// KeyDirPath directory holding the caller's private key PEM
	KeyDirPath string `validate:"required,dir"`
	// TLSCertPath file path to the peer's TLS CA certificate PEM
	TLSCertPath string `validate:"required,file"`
	// PeerEndpoint gateway peer host:port
	PeerEndpoint string `validate:"required"`
	// GatewayPeer gateway peer server name override for TLS
	GatewayPeer string `validate:"required"`
	// ChannelName the designated channel
	ChannelName string `validate:"required"`
	// ChaincodeName the access registry chaincode
	ChaincodeName string `validate:"required"`
	// ReadOnly when set, the returned contract refuses state mutations.
	// The identity is still required; evaluations are signed too.
	ReadOnly bool
}

// loadCertificate read an X509 certificate PEM file
func loadCertificate(filename string) (*x509.Certificate, error) {
	certificatePEM, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file [%w]", err)
	}
	return identity.CertificateFromPEM(certificatePEM)
}

// newGrpcConnection create a gRPC connection to the gateway peer
func newGrpcConnection(params GatewayParams) (*grpc.ClientConn, error) {
	certificate, err := loadCertificate(params.TLSCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load peer TLS certificate [%w]", err)
	}

	certPool := x509.NewCertPool()
	certPool.AddCert(certificate)
	transportCredentials := credentials.NewClientTLSFromCert(certPool, params.GatewayPeer)

	connection, err := grpc.NewClient(
		params.PeerEndpoint, grpc.WithTransportCredentials(transportCredentials),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection [%w]", err)
	}

	return connection, nil
}

// newIdentity create a client identity for a gateway connection
func newIdentity(params GatewayParams) (*identity.X509Identity, error) {
	certificate, err := loadCertificate(params.CertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load enrollment certificate [%w]", err)
	}

	id, err := identity.NewX509Identity(params.MSPID, certificate)
	if err != nil {
		return nil, fmt.Errorf("failed to build X509 identity [%w]", err)
	}

	return id, nil
}

// newSign create a signing function from the caller's private key
func newSign(params GatewayParams) (identity.Sign, error) {
	files, err := os.ReadDir(params.KeyDirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key directory [%w]", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("private key directory %s is empty", params.KeyDirPath)
	}

	privateKeyPEM, err := os.ReadFile(path.Join(params.KeyDirPath, files[0].Name()))
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file [%w]", err)
	}

	privateKey, err := identity.PrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key [%w]", err)
	}

	sign, err := identity.NewPrivateKeySign(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build signer [%w]", err)
	}

	return sign, nil
}

/*
NewGatewayContract connect to the access registry chaincode through a Fabric
gateway peer

	@param params GatewayParams - connection parameters
	@returns the contract binding, and a close function for the connection
*/
func NewGatewayContract(params GatewayParams) (Contract, func(), error) {
	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, nil, fmt.Errorf("invalid gateway init parameters [%w]", err)
	}

	clientConnection, err := newGrpcConnection(params)
	if err != nil {
		return nil, nil, err
	}

	id, err := newIdentity(params)
	if err != nil {
		_ = clientConnection.Close()
		return nil, nil, err
	}

	sign, err := newSign(params)
	if err != nil {
		_ = clientConnection.Close()
		return nil, nil, err
	}

	gw, err := client.Connect(
		id,
		client.WithSign(sign),
		client.WithClientConnection(clientConnection),
		// Default timeouts for different gRPC calls
		client.WithEvaluateTimeout(5*time.Second),
		client.WithEndorseTimeout(15*time.Second),
		client.WithSubmitTimeout(5*time.Second),
		client.WithCommitStatusTimeout(1*time.Minute),
	)
	if err != nil {
		_ = clientConnection.Close()
		return nil, nil, fmt.Errorf("failed to connect with gateway [%w]", err)
	}

	network := gw.GetNetwork(params.ChannelName)
	contract := Contract(network.GetContract(params.ChaincodeName))
	if params.ReadOnly {
		contract = AsReadOnly(contract)
	}

	closer := func() {
		_ = gw.Close()
		_ = clientConnection.Close()
	}

	return contract, closer, nil
}
