// Package vybiumzkvm is the public API of the Vybium zkVM.
//
// A host runs a guest program on a private input and gets back a Receipt:
// the guest's public journal plus a seal proving that the program with a
// given image ID produced it. Anyone holding the image ID can check the
// receipt without seeing the input.
//
// # Quick Start
//
// Writing a guest:
//
//	var Fibonacci = &vybiumzkvm.Program{
//		Name:     "fibonacci",
//		Artifact: guestSource,
//		Entry: func(env vybiumzkvm.GuestEnv) {
//			n := vybiumzkvm.Read[uint32](env)
//			var a, b uint64 = 0, 1
//			for i := uint32(0); i < n; i++ {
//				a, b = b, a+b
//			}
//			vybiumzkvm.Commit(env, b)
//		},
//	}
//
// Proving on the host:
//
//	zkvm, err := vybiumzkvm.New(vybiumzkvm.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	builder := vybiumzkvm.NewEnvBuilder()
//	if err := builder.Write(uint32(9)); err != nil {
//		log.Fatal(err)
//	}
//	receipt, err := zkvm.Prove(ctx, Fibonacci, builder.Build())
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Verifying:
//
//	imageID, _ := Fibonacci.ImageID()
//	if err := zkvm.Verify(receipt, imageID); err != nil {
//		log.Fatal(err)
//	}
//
//	var fib uint64
//	if err := receipt.Journal().Decode(&fib); err != nil {
//		log.Fatal(err)
//	}
//
// # Contract violations
//
// Reading past the last input segment, decoding a segment into the wrong
// type, or a coprocessor result that fails its checks aborts the guest.
// The run fails with ErrContractViolation; the host process keeps going.
//
// # Backends
//
// "groth16" proves with gnark's Groth16 over BN254. "dev" produces seals
// that prove nothing; they are accepted only in dev mode (DevMode in the
// configuration, or VYBIUM_ZKVM_DEV_MODE=1).
//
// # Architecture
//
// - pkg/vybium-zkvm/: Public API (this package)
// - internal/vybium-zkvm/: Private implementation (not importable)
package vybiumzkvm
