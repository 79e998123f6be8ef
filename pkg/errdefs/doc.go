/*
Package errdefs is the harness error taxonomy.

Every failure in a run is one of two kinds. A SetupError means the
harness could not build the world: provisioning, launching, readiness.
A TestError means the world was built and the service under test
misbehaved. The distinction decides the process exit code, which is how
CI tells "fix the rig" apart from "fix the service": setup failures exit
2, test failures exit 1, success exits 0.

Constructors Setupf and Testf build classified errors; WrapSetup and
WrapTest classify an existing cause while keeping it unwrappable.
IsSetup and IsTest check classification through wrapping, and ExitCode
folds any error into the exit value. Unclassified errors count as test
failures, the safe default for an error that escaped classification.

Usage:

	if err := prov.Provision(ctx); err != nil {
		return errdefs.WrapSetup(err, "provision topology")
	}
	if res.Empty() {
		return errdefs.Testf("record %s did not resolve", fqdn)
	}

	os.Exit(errdefs.ExitCode(runErr))
*/
package errdefs
