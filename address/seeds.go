package address

var (
	accountSeed = []byte("account")
	memberSeed  = []byte("member")
)

func SessionAddress(programID Address, name string, chair Address) (Address, uint8, error) {
	return FindAddress(programID, []byte(name), chair[:])
}

func ProposalAddress(programID Address, session Address, idx uint8) (Address, uint8, error) {
	return FindAddress(programID, session[:], []byte{idx})
}

func VoteMarkerAddress(programID Address, voter Address, proposal Address) (Address, uint8, error) {
	return FindAddress(programID, voter[:], proposal[:])
}

func VoterAddress(programID Address, session Address, member Address) (Address, uint8, error) {
	return FindAddress(programID, memberSeed, session[:], member[:])
}

func AccountAddress(programID Address, signer Address) (Address, uint8, error) {
	return FindAddress(programID, accountSeed, signer[:])
}
