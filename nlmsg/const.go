package nlmsg

import (
	"golang.org/x/sys/unix"
)

// Message kinds of the nf_tables subsystem. The wire type of a message is
// the kind combined with the subsystem through Type.
const (
	NewTable   uint16 = unix.NFT_MSG_NEWTABLE
	GetTable   uint16 = unix.NFT_MSG_GETTABLE
	DelTable   uint16 = unix.NFT_MSG_DELTABLE
	NewChain   uint16 = unix.NFT_MSG_NEWCHAIN
	GetChain   uint16 = unix.NFT_MSG_GETCHAIN
	DelChain   uint16 = unix.NFT_MSG_DELCHAIN
	NewRule    uint16 = unix.NFT_MSG_NEWRULE
	GetRule    uint16 = unix.NFT_MSG_GETRULE
	DelRule    uint16 = unix.NFT_MSG_DELRULE
	NewSet     uint16 = unix.NFT_MSG_NEWSET
	GetSet     uint16 = unix.NFT_MSG_GETSET
	DelSet     uint16 = unix.NFT_MSG_DELSET
	NewSetElem uint16 = unix.NFT_MSG_NEWSETELEM
	GetSetElem uint16 = unix.NFT_MSG_GETSETELEM
	DelSetElem uint16 = unix.NFT_MSG_DELSETELEM

	BatchBegin uint16 = unix.NFNL_MSG_BATCH_BEGIN
	BatchEnd   uint16 = unix.NFNL_MSG_BATCH_END
)

const (
	// SubsysNFTables is the nfnetlink subsystem owning nf_tables messages.
	SubsysNFTables = unix.NFNL_SUBSYS_NFTABLES

	// Version is the only nfgenmsg version in existence.
	Version = unix.NFNETLINK_V0

	// HeaderLen is the length of the netlink message header.
	HeaderLen = unix.NLMSG_HDRLEN

	// NfgenmsgLen is the length of the nfnetlink header following it.
	NfgenmsgLen = 4

	// minType is the first type not reserved for control messages.
	minType = 0x10
)

// Extended acknowledgement attributes trailing an error message.
const (
	extAckMsg    = 1
	extAckOffset = 2
)

// Type yields the wire message type for an nf_tables message kind.
func Type(kind uint16) uint16 {
	return uint16(SubsysNFTables)<<8 | kind
}

// Kind strips the subsystem off a wire message type.
func Kind(typ uint16) uint16 {
	return typ & 0x00ff
}

// Subsystem extracts the nfnetlink subsystem of a wire message type.
func Subsystem(typ uint16) uint8 {
	return uint8(typ >> 8)
}

var kindNames = map[uint16]string{
	NewTable: "newtable", GetTable: "gettable", DelTable: "deltable",
	NewChain: "newchain", GetChain: "getchain", DelChain: "delchain",
	NewRule: "newrule", GetRule: "getrule", DelRule: "delrule",
	NewSet: "newset", GetSet: "getset", DelSet: "delset",
	NewSetElem: "newsetelem", GetSetElem: "getsetelem", DelSetElem: "delsetelem",
	BatchBegin: "batch-begin", BatchEnd: "batch-end",
}

// KindName returns a human readable name for a message kind, used in logs.
func KindName(kind uint16) string {
	if n, ok := kindNames[kind]; ok {
		return n
	}
	return "unknown"
}
