package notary

import (
	proto "github.com/gogo/protobuf/proto"
)

// Claim is stored in the index under every claimed key. It points to the
// transaction that owns the key.
type Claim struct {
	TxID []byte `protobuf:"bytes,1,opt,name=tx_id,json=txId,proto3" json:"tx_id,omitempty"`
	// Kind is either "input" or "linear_id".
	Kind string `protobuf:"bytes,2,opt,name=kind,proto3" json:"kind,omitempty"`
}

func (m *Claim) Reset()         { *m = Claim{} }
func (m *Claim) String() string { return proto.CompactTextString(m) }
func (*Claim) ProtoMessage()    {}

// Receipt is stored for every notarized transaction, so that a repeated
// request for the same transaction returns the original attestation.
type Receipt struct {
	Version   int64  `protobuf:"varint,1,opt,name=version,proto3" json:"version,omitempty"`
	IndexHash []byte `protobuf:"bytes,2,opt,name=index_hash,json=indexHash,proto3" json:"index_hash,omitempty"`
	Signature []byte `protobuf:"bytes,3,opt,name=signature,proto3" json:"signature,omitempty"`
}

func (m *Receipt) Reset()         { *m = Receipt{} }
func (m *Receipt) String() string { return proto.CompactTextString(m) }
func (*Receipt) ProtoMessage()    {}
